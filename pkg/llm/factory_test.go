package llm

import (
	"testing"

	"chorus/pkg/config"
	"chorus/pkg/llm/compat"
	"chorus/pkg/llm/openai"
)

func TestParseVendor(t *testing.T) {
	cases := []struct {
		in   string
		want Vendor
	}{
		{"", VendorNone},
		{"  ", VendorNone},
		{"none", VendorNone},
		{"OpenAI", VendorOpenAI},
		{" openrouter ", VendorOpenRouter},
		{"gemini", VendorGemini},
		{"acme-llm", Vendor("acme-llm")},
	}

	for _, tc := range cases {
		if got := ParseVendor(tc.in); got != tc.want {
			t.Fatalf("ParseVendor(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCreateClientDisabledSignals(t *testing.T) {
	cfg := &config.Config{}

	t.Run("vendor none", func(t *testing.T) {
		client, err := CreateClient(cfg, VendorNone, "sk-test", "m")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client != nil {
			t.Fatalf("expected no client, got %T", client)
		}
	})

	t.Run("blank credential", func(t *testing.T) {
		client, err := CreateClient(cfg, VendorOpenAI, "   ", "m")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client != nil {
			t.Fatalf("expected no client, got %T", client)
		}
	})

	t.Run("unknown vendor degrades to disabled", func(t *testing.T) {
		client, err := CreateClient(cfg, Vendor("acme-llm"), "sk-test", "m")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client != nil {
			t.Fatalf("expected no client, got %T", client)
		}
	})
}

func TestCreateClientSelectsVendorImplementations(t *testing.T) {
	cfg := &config.Config{}

	client, err := CreateClient(cfg, VendorOpenAI, "sk-test", "gpt-5.2")
	if err != nil {
		t.Fatalf("openai: unexpected error: %v", err)
	}
	if _, ok := client.(*openai.Client); !ok {
		t.Fatalf("openai: expected *openai.Client, got %T", client)
	}

	client, err = CreateClient(cfg, VendorOpenRouter, "sk-test", "")
	if err != nil {
		t.Fatalf("openrouter: unexpected error: %v", err)
	}
	if _, ok := client.(*compat.Client); !ok {
		t.Fatalf("openrouter: expected *compat.Client, got %T", client)
	}

	client, err = CreateClient(cfg, VendorGemini, "sk-test", "")
	if err != nil {
		t.Fatalf("gemini: unexpected error: %v", err)
	}
	if _, ok := client.(*compat.Client); !ok {
		t.Fatalf("gemini: expected *compat.Client, got %T", client)
	}
}

func TestDefaultClientFailsFastWhenUnconfigured(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	cfg := &config.Config{}
	cfg.Engine.Vendor = "openai"

	if _, err := DefaultClient(cfg); err == nil {
		t.Fatal("expected error when no credential is available")
	}
}

func TestDefaultClientUsesEngineVendor(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := &config.Config{}
	cfg.Engine.Vendor = "openai"
	cfg.Engine.Model = "gpt-5.2"

	client, err := DefaultClient(cfg)
	if err != nil {
		t.Fatalf("DefaultClient error: %v", err)
	}
	if _, ok := client.(*openai.Client); !ok {
		t.Fatalf("expected *openai.Client, got %T", client)
	}
}
