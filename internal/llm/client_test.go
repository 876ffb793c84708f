package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeProvider fails for every model listed in fail and succeeds otherwise,
// recording each attempt.
type fakeProvider struct {
	name     string
	models   []string
	fail     map[string]error
	attempts []string
}

func (f *fakeProvider) Name() string { return f.name }
func (f *fakeProvider) Models() []string { return f.models }

func (f *fakeProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	f.attempts = append(f.attempts, req.Model)
	if err, ok := f.fail[req.Model]; ok {
		return nil, &ProviderError{Provider: f.name, Model: req.Model, Err: err}
	}
	return &Response{Provider: f.name, Model: req.Model, Content: "ok from " + f.name}, nil
}

func TestCompleteAnySkipsUnavailableModels(t *testing.T) {
	p := &fakeProvider{
		name:   "alpha",
		models: []string{"a1", "a2", "a3"},
		fail: map[string]error{
			"a1": ErrRateLimited,
			"a2": ErrModelNotFound,
		},
	}
	client := New([]Provider{p})

	resp, err := client.CompleteAny(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Model != "a3" {
		t.Errorf("expected a3, got %s", resp.Model)
	}
	want := []string{"a1", "a2", "a3"}
	if fmt.Sprint(p.attempts) != fmt.Sprint(want) {
		t.Errorf("expected attempts %v, got %v", want, p.attempts)
	}
}

func TestCompleteAnyCrossesProviders(t *testing.T) {
	first := &fakeProvider{
		name:   "alpha",
		models: []string{"a1"},
		fail:   map[string]error{"a1": ErrRateLimited},
	}
	second := &fakeProvider{name: "beta", models: []string{"b1"}}
	client := New([]Provider{first, second})

	resp, err := client.CompleteAny(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Provider != "beta" || resp.Model != "b1" {
		t.Errorf("expected beta/b1, got %s/%s", resp.Provider, resp.Model)
	}
}

func TestCompleteAnyAllFail(t *testing.T) {
	p := &fakeProvider{
		name:   "alpha",
		models: []string{"a1", "a2"},
		fail: map[string]error{
			"a1": ErrRateLimited,
			"a2": ErrRateLimited,
		},
	}
	client := New([]Provider{p})

	_, err := client.CompleteAny(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected an error when every model fails")
	}
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected last error to wrap ErrRateLimited, got %v", err)
	}
}

func TestCompleteAnyCancelled(t *testing.T) {
	p := &fakeProvider{name: "alpha", models: []string{"a1"}}
	client := New([]Provider{p})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.CompleteAny(ctx, Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(p.attempts) != 0 {
		t.Errorf("expected no attempts after cancellation, got %v", p.attempts)
	}
}

func TestCompleteRoutesByPrefix(t *testing.T) {
	alpha := &fakeProvider{name: "alpha", models: []string{"a1"}}
	beta := &fakeProvider{name: "beta", models: []string{"b1"}}
	client := New([]Provider{alpha, beta})

	resp, err := client.Complete(context.Background(), Request{Model: "beta/b9"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Provider != "beta" || resp.Model != "b9" {
		t.Errorf("expected beta/b9, got %s/%s", resp.Provider, resp.Model)
	}

	_, err = client.Complete(context.Background(), Request{Model: "gamma/x"})
	if !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("expected ErrProviderNotFound for unknown prefix, got %v", err)
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"RateLimited", ErrRateLimited, true},
		{"ModelNotFound", ErrModelNotFound, true},
		{"WrappedInProviderError", &ProviderError{Provider: "alpha", Model: "a1", Err: ErrRateLimited}, true},
		{"Other", errors.New("boom"), false},
		{"NoAPIKey", ErrNoAPIKey, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Retryable(tc.err); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestProviderErrorMessage(t *testing.T) {
	err := &ProviderError{Provider: "alpha", Model: "a1", Err: ErrRateLimited}
	if !errors.Is(err, ErrRateLimited) {
		t.Error("expected ProviderError to unwrap to its cause")
	}
	if err.Error() == "" {
		t.Error("expected a non-empty message")
	}
}
