package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/paws-and-plates/lead-radar/internal/config"
	"github.com/paws-and-plates/lead-radar/internal/rules"
	"github.com/paws-and-plates/lead-radar/internal/sources"
)

func main() {
	fmt.Println("🔍 Lead Radar - Source Connectivity Check")
	fmt.Println("=========================================")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ruleset, err := rules.Load(cfg.RulesPath)
	if err != nil {
		log.Fatalf("Failed to load ruleset: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("\n📡 Testing sources...")
	fmt.Println(strings.Repeat("-", 40))

	retry := sources.DefaultRetryPolicy()
	srcs := map[string]sources.Source{
		"reddit":        sources.NewRedditSource(cfg.RedditClientID, cfg.RedditClientSecret, retry),
		"stackexchange": sources.NewStackExchangeSource(cfg.StackExchangeKey, retry),
	}

	// One representative channel per source
	tested := make(map[string]bool)
	for _, channel := range ruleset.Channels {
		name := channel.Source
		if name == "" {
			name = "reddit"
		}
		if tested[name] {
			continue
		}
		source, ok := srcs[name]
		if !ok {
			continue
		}
		tested[name] = true
		testSource(ctx, source, channel.Name)
	}

	fmt.Println("\n✅ Source connectivity check completed!")
	fmt.Println("\n💡 Next steps:")
	fmt.Println("   • Configure missing credentials in .env file")
	fmt.Println("   • Run full radar with: make run")
}

func testSource(ctx context.Context, source sources.Source, channel string) {
	fmt.Printf("🔸 Testing %s (channel %s)... ", source.Name(), channel)

	if !source.IsEnabled() {
		fmt.Printf("⚠️  DISABLED (missing credentials)\n")
		return
	}

	items, err := source.FetchNew(ctx, channel)
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}

	fmt.Printf("✅ SUCCESS (%d items fetched)\n", len(items))

	if len(items) > 0 {
		fmt.Printf("   📝 Sample: %q\n", items[0].Title)
	}
}
