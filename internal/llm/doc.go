// Package llm talks to the LLM aggregation API.
//
// Client sends one chat completion per call. Fallback walks an ordered Policy of
// models and returns the first success:
//
//	f := llm.NewFallback(llm.NewClient(baseURL, key, 2*time.Minute), llm.Policy{
//		Candidates: []llm.Model{{Provider: "openai", Name: "gpt-5"}, {Provider: "anthropic", Name: "claude-sonnet-4-20250514"}},
//	})
//	res, err := f.Generate(ctx, llm.Request{SessionID: llm.NewSessionID("hero"), System: sys, Prompt: p})
//
// Each candidate gets exactly one attempt with the same request. When all fail the
// error is an *ExhaustedError listing every attempt.
package llm
