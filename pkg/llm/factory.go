package llm

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"chorus/pkg/config"
	"chorus/pkg/llm/compat"
	"chorus/pkg/llm/openai"
)

// Vendor identifies an external language-model provider.
type Vendor string

const (
	// VendorNone is the sentinel "AI disabled" vendor.
	VendorNone       Vendor = "none"
	VendorOpenAI     Vendor = "openai"
	VendorOpenRouter Vendor = "openrouter"
	VendorGemini     Vendor = "gemini"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultGeminiBaseURL     = "https://generativelanguage.googleapis.com/v1beta/openai"

	defaultOpenAIModel     = "gpt-4o-mini"
	defaultOpenRouterModel = "openai/gpt-4o-mini"
	defaultGeminiModel     = "gemini-2.0-flash"
)

// ParseVendor normalizes a raw vendor identifier. Unknown values are kept
// as-is so CreateClient can degrade them to "no client" rather than failing.
func ParseVendor(raw string) Vendor {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return VendorNone
	}

	return Vendor(normalized)
}

// CreateClient builds a vendor-specific client bound to the given credential.
//
// A nil client with a nil error is the valid "AI disabled" signal: it is
// returned for VendorNone, for a blank credential, and for unrecognized
// vendor values. Callers must check for it before use.
func CreateClient(cfg *config.Config, vendor Vendor, apiKey, model string) (Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if vendor == VendorNone || apiKey == "" {
		return nil, nil
	}

	switch vendor {
	case VendorOpenAI:
		if model = strings.TrimSpace(model); model == "" {
			model = defaultOpenAIModel
		}
		return openai.New(cfg.Vendors.OpenAI, apiKey, model)
	case VendorOpenRouter:
		if model = strings.TrimSpace(model); model == "" {
			model = defaultOpenRouterModel
		}
		vendorCfg := cfg.Vendors.OpenRouter
		return compat.New(
			string(VendorOpenRouter),
			baseURLOrDefault(vendorCfg.BaseURL, defaultOpenRouterBaseURL),
			apiKey,
			model,
			time.Duration(vendorCfg.RequestTimeoutSeconds)*time.Second,
		)
	case VendorGemini:
		if model = strings.TrimSpace(model); model == "" {
			model = defaultGeminiModel
		}
		vendorCfg := cfg.Vendors.Gemini
		return compat.New(
			string(VendorGemini),
			baseURLOrDefault(vendorCfg.BaseURL, defaultGeminiBaseURL),
			apiKey,
			model,
			time.Duration(vendorCfg.RequestTimeoutSeconds)*time.Second,
		)
	default:
		slog.Default().With("component", "llm.factory").
			Warn("unrecognized vendor, treating as disabled", "vendor", string(vendor))
		return nil, nil
	}
}

// DefaultClient returns the operator-configured client. Unlike CreateClient,
// an unconfigured default is an error: the process should fail fast at
// startup rather than per-call.
func DefaultClient(cfg *config.Config) (Client, error) {
	vendor := ParseVendor(cfg.Engine.Vendor)

	client, err := CreateClient(cfg, vendor, resolveAPIKey(cfg, vendor), cfg.Engine.Model)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("no default model client: engine.vendor is %q and a credential must be set", cfg.Engine.Vendor)
	}

	return client, nil
}

// resolveAPIKey reads the vendor credential from the configured env var,
// falling back to the vendor's conventional variable name.
func resolveAPIKey(cfg *config.Config, vendor Vendor) string {
	var configured, fallback string
	switch vendor {
	case VendorOpenAI:
		configured, fallback = cfg.Vendors.OpenAI.APIKeyEnv, "OPENAI_API_KEY"
	case VendorOpenRouter:
		configured, fallback = cfg.Vendors.OpenRouter.APIKeyEnv, "OPENROUTER_API_KEY"
	case VendorGemini:
		configured, fallback = cfg.Vendors.Gemini.APIKeyEnv, "GEMINI_API_KEY"
	default:
		return ""
	}

	if configured = strings.TrimSpace(configured); configured != "" {
		if apiKey := strings.TrimSpace(os.Getenv(configured)); apiKey != "" {
			return apiKey
		}
	}

	return strings.TrimSpace(os.Getenv(fallback))
}

func baseURLOrDefault(baseURL, fallback string) string {
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		return baseURL
	}

	return fallback
}
