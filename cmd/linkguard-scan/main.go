package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/mail"
	"os"
	"time"

	"github.com/jhillyerd/enmime"
	"go.uber.org/zap"

	"github.com/linkguard/linkguard/internal/core"
	"github.com/linkguard/linkguard/internal/logging"
	"github.com/linkguard/linkguard/internal/utils"
)

var (
	scanURL   = flag.String("url", "", "Analyze a single URL instead of an email")
	inputFile = flag.String("file", "", "Input email file (use stdin if not specified)")
	maxLinks  = flag.Int("max-links", 20, "Maximum number of links to extract from an email")
	jsonOut   = flag.Bool("json", false, "Print the verdict as JSON")
	verbose   = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog   = flag.Bool("json-log", false, "Output logs in JSON format")
)

func main() {
	flag.Parse()

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *scanURL != "" {
		analyzeURL(*scanURL)
		return
	}

	analyzeEmail(logger)
}

func analyzeURL(raw string) {
	startTime := time.Now()
	verdict := core.EvaluateURL(raw)

	if *jsonOut {
		printJSON(map[string]interface{}{
			"url":            raw,
			"normalized_url": verdict.NormalizedURL,
			"host":           verdict.Host,
			"risk_category":  verdict.Category,
			"score":          verdict.Score,
			"explanations":   verdict.Explanations,
		})
		return
	}

	fmt.Printf("\n=== URL Verdict ===\n")
	fmt.Printf("URL: %s\n", raw)
	fmt.Printf("Normalized: %s\n", verdict.NormalizedURL)
	if verdict.Host != "" {
		fmt.Printf("Host: %s\n", verdict.Host)
	}
	fmt.Printf("Category: %s\n", verdict.Category)
	fmt.Printf("Score: %d\n", verdict.Score)
	for _, explanation := range verdict.Explanations {
		fmt.Printf("  - %s\n", explanation)
	}
	fmt.Printf("Processing time: %v\n", time.Since(startTime))
}

func analyzeEmail(logger *zap.Logger) {
	// Read email from file or stdin
	var emailReader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", *inputFile))
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", *inputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	env, err := enmime.ReadEnvelope(bufio.NewReader(emailReader))
	if err != nil {
		logger.Fatal("Failed to parse email", zap.Error(err))
	}

	identity := core.SenderIdentity{}
	if from := env.GetHeader("From"); from != "" {
		if addr, err := mail.ParseAddress(from); err == nil {
			identity.DisplayName = addr.Name
			identity.FromEmail = addr.Address
		} else {
			identity.FromEmail = from
		}
	}
	if replyTo := env.GetHeader("Reply-To"); replyTo != "" {
		if addrs, err := mail.ParseAddressList(replyTo); err == nil {
			for _, addr := range addrs {
				identity.ReplyToEmails = append(identity.ReplyToEmails, addr.Address)
			}
		}
	}

	extractor := utils.NewLinkExtractor(logger, *maxLinks)
	links := extractor.Extract(env.Text, env.HTML)

	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", env.GetHeader("From"))
	fmt.Printf("Subject: %s\n", env.GetHeader("Subject"))
	fmt.Printf("Links found: %d\n", len(links))

	startTime := time.Now()

	sender := core.EvaluateSender(identity)
	results := make([]core.LinkResult, 0, len(links))
	for _, link := range links {
		results = append(results, core.LinkResult{URL: link, Verdict: core.EvaluateURL(link)})
	}

	verdict, err := core.AggregateEmail(sender, results)
	if err != nil {
		// No links means nothing to judge; report the sender verdict alone.
		fmt.Printf("\n=== Results ===\n")
		fmt.Printf("No links to analyze\n")
		fmt.Printf("Sender category: %s\n", sender.Category)
		fmt.Printf("Sender score: %d\n", sender.Score)
		for _, explanation := range sender.Explanations {
			fmt.Printf("  - %s\n", explanation)
		}
		return
	}

	if *jsonOut {
		linkOut := make([]map[string]interface{}, 0, len(verdict.Links))
		for _, link := range verdict.Links {
			linkOut = append(linkOut, map[string]interface{}{
				"url":            link.URL,
				"normalized_url": link.Verdict.NormalizedURL,
				"host":           link.Verdict.Host,
				"risk_category":  link.Verdict.Category,
				"score":          link.Verdict.Score,
				"explanations":   link.Verdict.Explanations,
			})
		}
		printJSON(map[string]interface{}{
			"risk_category": verdict.Overall.Category,
			"score":         verdict.Overall.Score,
			"explanations":  verdict.Summary,
			"sender": map[string]interface{}{
				"risk_category": verdict.Sender.Category,
				"score":         verdict.Sender.Score,
				"explanations":  verdict.Sender.Explanations,
				"signals":       verdict.Sender.Signals,
			},
			"links": linkOut,
		})
		return
	}

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Category: %s\n", verdict.Overall.Category)
	fmt.Printf("Score: %d\n", verdict.Overall.Score)
	for _, explanation := range verdict.Summary {
		fmt.Printf("  - %s\n", explanation)
	}
	fmt.Printf("\nSender: %s (score %d)\n", verdict.Sender.Category, verdict.Sender.Score)
	for _, explanation := range verdict.Sender.Explanations {
		fmt.Printf("  - %s\n", explanation)
	}
	fmt.Printf("\nLinks:\n")
	for _, link := range verdict.Links {
		fmt.Printf("  %s: %s (score %d)\n", link.Verdict.Category, link.URL, link.Verdict.Score)
	}
	fmt.Printf("\nProcessing time: %v\n", time.Since(startTime))
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
		os.Exit(1)
	}
}
