// Command smokelogin drives a real browser through the login flow against
// a running deployment. CI runs it after deploys to catch broken auth
// before users do.
package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags)

	godotenv.Load()

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	email := os.Getenv("TEST_EMAIL")
	password := os.Getenv("TEST_PASSWORD")
	if email == "" || password == "" {
		log.Println("❌ TEST_EMAIL and TEST_PASSWORD are required")
		os.Exit(1)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	if chromePath := os.Getenv("CHROME_PATH"); chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancelAlloc()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	ctx, cancelTimeout := context.WithTimeout(ctx, 60*time.Second)
	defer cancelTimeout()

	// Watch the login API call so a failed submit reports the real status
	var loginStatus int64
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if resp, ok := ev.(*network.EventResponseReceived); ok {
			if strings.Contains(resp.Response.URL, "/api/auth/login") {
				loginStatus = resp.Response.Status
			}
		}
	})

	log.Printf("🔍 Logging in at %s as %s", baseURL, email)

	err := chromedp.Run(ctx,
		network.Enable(),
		chromedp.Navigate(baseURL+"/login"),
		chromedp.WaitVisible(`input[name="email"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="email"]`, email, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="password"]`, password, chromedp.ByQuery),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
		chromedp.WaitVisible(`[data-testid="today-view"]`, chromedp.ByQuery),
	)
	if err != nil {
		if loginStatus != 0 && loginStatus != 200 {
			log.Printf("❌ Login API returned status %d", loginStatus)
		}
		log.Printf("❌ Login flow failed: %v", err)
		os.Exit(1)
	}

	log.Println("✅ Login flow succeeded")
}
