package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kevin07696/openpayu/internal/adapters/openpayu"
	"github.com/kevin07696/openpayu/internal/bootstrap"
	"github.com/kevin07696/openpayu/internal/config"
	"github.com/kevin07696/openpayu/pkg/security"
)

// OrderCLI runs one OpenPayU operation per invocation
type OrderCLI struct {
	ctx    context.Context
	orders *openpayu.OrderClient
	out    io.Writer
	debug  bool
}

func main() {
	var (
		action    = flag.String("action", "", "Action to perform: create, retrieve, cancel, update-status, shipping-response, decode")
		session   = flag.String("session", "", "Order session id")
		status    = flag.String("status", "COMPLETED", "Order status for update-status")
		orderFile = flag.String("order", "", "JSON file with the OrderCreateRequest fields")
		costsFile = flag.String("costs", "", "JSON file with shipping costs for shipping-response")
		reqID     = flag.String("req-id", "", "ReqId of the ShippingCostRetrieveRequest being answered")
		country   = flag.String("country", "", "Country code for shipping-response")
		payload   = flag.String("payload", "", "URL encoded notification payload for decode")
		timeout   = flag.Duration("timeout", 60*time.Second, "Overall timeout")
		debug     = flag.Bool("debug", false, "Log endpoint, request and response documents")
	)
	flag.Parse()

	if *action == "" {
		usage()
		os.Exit(1)
	}

	// Offline actions need no credentials
	switch *action {
	case "shipping-response":
		exitOnError(shippingResponse(os.Stdout, *reqID, *country, *costsFile))
		return
	case "decode":
		exitOnError(decode(os.Stdout, *payload))
		return
	}

	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	exitOnError(err)

	level := cfg.Logger.Level
	if *debug {
		level = "debug"
	}
	logger, err := security.NewZapLoggerFromConfig(level, true)
	exitOnError(err)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := bootstrap.NewClient(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize OpenPayU client", zap.Error(err))
	}

	cli := &OrderCLI{ctx: ctx, orders: client.Orders, out: os.Stdout, debug: *debug}

	switch *action {
	case "create":
		err = cli.create(*orderFile)
	case "retrieve":
		err = cli.retrieve(*session)
	case "cancel":
		err = cli.cancel(*session)
	case "update-status":
		err = cli.updateStatus(*session, *status)
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		logger.Fatal("Operation failed", zap.String("action", *action), zap.Error(err))
	}
}

func usage() {
	fmt.Println("Usage: openpayu -action=<action> [options]")
	fmt.Println("Actions:")
	fmt.Println("  create            - Create an order from -order=<file.json>")
	fmt.Println("  retrieve          - Retrieve the order for -session")
	fmt.Println("  cancel            - Cancel the order for -session")
	fmt.Println("  update-status     - Set -status on the order for -session")
	fmt.Println("  shipping-response - Build a ShippingCostRetrieveResponse from -costs, -req-id and -country")
	fmt.Println("  decode            - Decode and classify a pushed -payload")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (c *OrderCLI) create(orderFile string) error {
	if orderFile == "" {
		return fmt.Errorf("-order is required")
	}
	data, err := os.ReadFile(orderFile)
	if err != nil {
		return fmt.Errorf("failed to read order file: %w", err)
	}
	order, err := openpayu.FieldsFromJSON(data)
	if err != nil {
		return fmt.Errorf("invalid order file: %w", err)
	}

	result, err := c.orders.Create(c.ctx, order, openpayu.WithDebug(c.debug))
	if err != nil {
		return err
	}
	return printResult(c.out, result)
}

func (c *OrderCLI) retrieve(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("-session is required")
	}
	result, err := c.orders.Retrieve(c.ctx, sessionID, openpayu.WithDebug(c.debug))
	if err != nil {
		return err
	}
	return printResult(c.out, result)
}

func (c *OrderCLI) cancel(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("-session is required")
	}
	result, err := c.orders.Cancel(c.ctx, sessionID, openpayu.WithDebug(c.debug))
	if err != nil {
		return err
	}
	return printResult(c.out, result)
}

func (c *OrderCLI) updateStatus(sessionID, status string) error {
	if sessionID == "" || status == "" {
		return fmt.Errorf("-session and -status are required")
	}
	result, err := c.orders.UpdateStatus(c.ctx, sessionID, status, openpayu.WithDebug(c.debug))
	if err != nil {
		return err
	}
	return printResult(c.out, result)
}

// resultView is the printed form of a Result
type resultView struct {
	Success    bool            `json:"success"`
	StatusCode string          `json:"status_code"`
	Message    string          `json:"message,omitempty"`
	Status     openpayu.Status `json:"status,omitempty"`
	SessionID  string          `json:"session_id,omitempty"`
	Response   interface{}     `json:"response,omitempty"`
}

func printResult(out io.Writer, result *openpayu.Result) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(resultView{
		Success:    result.Success,
		StatusCode: result.Error,
		Message:    result.MessageText(),
		Status:     result.Status,
		SessionID:  result.SessionID,
		Response:   result.Response,
	})
}

// shippingCostJSON is one entry of the -costs file; amounts are major units
type shippingCostJSON struct {
	Type     string          `json:"type"`
	Gross    decimal.Decimal `json:"gross"`
	Net      decimal.Decimal `json:"net"`
	Tax      decimal.Decimal `json:"tax"`
	TaxRate  decimal.Decimal `json:"tax_rate"`
	Currency string          `json:"currency"`
}

func shippingResponse(out io.Writer, reqID, countryCode, costsFile string) error {
	if costsFile == "" {
		return fmt.Errorf("-costs is required")
	}
	data, err := os.ReadFile(costsFile)
	if err != nil {
		return fmt.Errorf("failed to read costs file: %w", err)
	}

	var entries []shippingCostJSON
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("invalid costs file: %w", err)
	}

	costs := make([]openpayu.ShippingCost, 0, len(entries))
	for _, e := range entries {
		costs = append(costs, openpayu.ShippingCost{
			Type:     e.Type,
			Gross:    e.Gross,
			Net:      e.Net,
			Tax:      e.Tax,
			TaxRate:  e.TaxRate,
			Currency: e.Currency,
		})
	}

	doc, err := openpayu.BuildShippingCostRetrieveResponse(reqID, countryCode, costs)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(doc))
	return err
}

func decode(out io.Writer, payload string) error {
	if payload == "" {
		return fmt.Errorf("-payload is required")
	}
	xmlPayload, err := openpayu.DecodePayload(payload)
	if err != nil {
		return err
	}
	msg, err := openpayu.ParseInboundMessage(xmlPayload)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"kind": msg.Kind.String(),
		"tag":  msg.Tag,
		"body": msg.Body,
	})
}
