package tokenlist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const registryJSON = `{
  "name": "Solana Token List",
  "timestamp": "2021-03-03T19:57:21+0000",
  "tokens": [
    {"chainId": 101, "address": "So11111111111111111111111111111111111111112", "symbol": "SOL", "name": "Wrapped SOL", "decimals": 9, "tags": []},
    {"chainId": 101, "address": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", "symbol": "USDC", "name": "USD Coin", "decimals": 6, "extensions": {"website": "https://www.centre.io/"}},
    {"chainId": 103, "address": "SRMuApVNdxXokk5GT7XD5cUUgXMBCoAz2LHeuAoKWRt", "symbol": "SRM", "name": "Serum", "decimals": 6}
  ]
}`

func TestResolve(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(registryJSON))
	}))
	defer srv.Close()

	p := NewProvider([]string{srv.URL})
	list, err := p.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := len(list.List()); got != 3 {
		t.Errorf("len = %d, want 3", got)
	}

	// No caching: a second resolve goes back to the source.
	if _, err := p.Resolve(context.Background()); err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("hits = %d, want 2", hits.Load())
	}
}

func TestResolve_Fallback(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	garbled := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>"))
	}))
	defer garbled.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(registryJSON))
	}))
	defer good.Close()

	p := NewProvider([]string{bad.URL, garbled.URL, good.URL}, WithLogger(nil))
	list, err := p.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(list.List()) != 3 {
		t.Errorf("len = %d, want 3", len(list.List()))
	}
}

func TestResolve_AllFail(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	p := NewProvider([]string{bad.URL, bad.URL + "/other"})
	if _, err := p.Resolve(context.Background()); err == nil {
		t.Fatal("Resolve succeeded, want error")
	}

	if _, err := NewProvider(nil).Resolve(context.Background()); err != ErrNoSources {
		t.Errorf("empty provider error = %v, want ErrNoSources", err)
	}
}

func TestResolve_Timeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	p := NewProvider([]string{slow.URL}, WithTimeout(50*time.Millisecond))
	start := time.Now()
	if _, err := p.Resolve(context.Background()); err == nil {
		t.Fatal("Resolve succeeded, want timeout")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Resolve took %v, want < 1s", elapsed)
	}
}

func TestFilterByClusterSlug(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(registryJSON))
	}))
	defer srv.Close()

	list, err := NewProvider([]string{srv.URL}).Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	tests := []struct {
		slug    string
		want    []string
		wantErr bool
	}{
		{slug: "mainnet-beta", want: []string{"SOL", "USDC"}},
		{slug: "devnet", want: []string{"SRM"}},
		{slug: "testnet", want: []string{}},
		{slug: "localnet", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			filtered, err := list.FilterByClusterSlug(tt.slug)
			if tt.wantErr {
				if err == nil {
					t.Fatal("want error for unknown slug")
				}
				return
			}
			if err != nil {
				t.Fatalf("FilterByClusterSlug: %v", err)
			}
			got := filtered.List()
			if got == nil {
				t.Fatal("List() returned nil")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i, sym := range tt.want {
				if got[i].Symbol != sym {
					t.Errorf("token[%d] = %s, want %s", i, got[i].Symbol, sym)
				}
			}
		})
	}

	usdc, _ := list.FilterByClusterSlug("mainnet-beta")
	if usdc.List()[1].Extensions["website"] != "https://www.centre.io/" {
		t.Errorf("extensions not preserved: %v", usdc.List()[1].Extensions)
	}
}

func TestKnownClusterSlug(t *testing.T) {
	if !KnownClusterSlug("mainnet-beta") || KnownClusterSlug("mainnet") {
		t.Error("KnownClusterSlug mismatch")
	}
	if NewTokenList(nil).List() == nil {
		t.Error("empty list should not be nil")
	}
}
