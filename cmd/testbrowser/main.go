// Command testbrowser exercises one browser driver by hand: it opens a page
// and prints a snapshot, waits for a locator, or captures a screenshot.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/neboloop/pageverify/internal/browser"
	"github.com/neboloop/pageverify/internal/verify"
)

func main() {
	fmt.Println("=== Browser Test ===")

	// Parse args: testbrowser <driver> <action> <url-or-file> [arg]
	if len(os.Args) < 4 {
		fmt.Println("Usage: testbrowser <playwright|chromedp|rod> <snapshot|wait|screenshot> <url-or-file> [text|out.png]")
		os.Exit(2)
	}
	driver, action, target := os.Args[1], os.Args[2], os.Args[3]
	arg := ""
	if len(os.Args) >= 5 {
		arg = os.Args[4]
	}

	url := target
	if !strings.Contains(target, "://") && target != "about:blank" {
		abs, err := filepath.Abs(target)
		if err != nil {
			fmt.Printf("   ERROR: %v\n", err)
			os.Exit(2)
		}
		url = verify.FileURL(abs)
	}

	fmt.Printf("\n1. Opening %s session...\n", driver)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	opts := browser.DefaultOptions()
	opts.Driver = driver
	opts.NoSandbox = os.Getenv("PAGEVERIFY_NO_SANDBOX") != ""

	session, err := browser.Open(ctx, opts)
	if err != nil {
		fmt.Printf("   ERROR: %v\n", err)
		os.Exit(2)
	}
	defer browser.Shutdown()
	defer session.Close()
	fmt.Println("   Session created successfully!")

	fmt.Printf("\n2. Navigating to %s...\n", url)
	if err := session.Navigate(ctx, url); err != nil {
		fmt.Printf("   ERROR: %v\n", err)
		return
	}

	switch action {
	case "snapshot":
		fmt.Println("\n3. Taking snapshot...")
		snapshot, err := session.Snapshot(ctx)
		if err != nil {
			fmt.Printf("   ERROR: %v\n", err)
			return
		}
		fmt.Printf("Snapshot (%d chars):\n%s\n", len(snapshot), snapshot)

	case "wait":
		if arg == "" {
			fmt.Println("Usage: testbrowser <driver> wait <url-or-file> <text>")
			return
		}
		loc := browser.Text(arg)
		fmt.Printf("\n3. Waiting for %s...\n", loc)
		start := time.Now()
		if err := session.WaitVisible(ctx, loc, browser.DefaultVisibleTimeout); err != nil {
			fmt.Printf("   ERROR: %v\n", err)
			return
		}
		fmt.Printf("   Visible after %s\n", time.Since(start).Round(time.Millisecond))
		if box, err := session.BoundingBox(ctx, loc); err != nil {
			fmt.Printf("   ERROR: %v\n", err)
		} else if box != nil {
			fmt.Printf("   Box: %s\n", box)
		}

	case "screenshot":
		fmt.Println("\n3. Taking screenshot...")
		png, err := session.Screenshot(ctx, true)
		if err != nil {
			fmt.Printf("   ERROR: %v\n", err)
			return
		}
		if arg == "" {
			arg = "testbrowser.png"
		}
		if err := os.WriteFile(arg, png, 0644); err != nil {
			fmt.Printf("   ERROR: %v\n", err)
			return
		}
		fmt.Printf("Screenshot: %d bytes written to %s\n", len(png), arg)

	default:
		fmt.Printf("Unknown action: %s (valid: snapshot, wait, screenshot)\n", action)
	}

	for _, m := range session.ConsoleErrors() {
		fmt.Printf("   console %s: %s\n", m.Type, m.Text)
	}

	fmt.Println("\n=== Done ===")
}
