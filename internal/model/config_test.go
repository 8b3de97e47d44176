package model

import "testing"

func TestApplyEnv(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "gh-env")
	t.Setenv("JIRA_BASE_URL", "https://tracker.example.test")
	t.Setenv("JIRA_EMAIL", "bot@example.test")
	t.Setenv("JIRA_API_TOKEN", "jira-env")
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-env")

	cfg := DefaultConfig()
	cfg.SourceControl.Token = "from-file"
	cfg.LLM.Provider = "anthropic"
	cfg.ApplyEnv()

	if cfg.SourceControl.Token != "from-file" {
		t.Errorf("explicit token should win, got %q", cfg.SourceControl.Token)
	}
	if cfg.IssueTracker.Token != "jira-env" || cfg.IssueTracker.Email != "bot@example.test" {
		t.Errorf("tracker credentials not applied: %+v", cfg.IssueTracker)
	}
	if cfg.LLM.APIKey != "anthropic-env" {
		t.Errorf("LLM key = %q", cfg.LLM.APIKey)
	}
}

func TestRedacted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SourceControl.Token = "secret"
	cfg.LLM.APIKey = "key"

	r := cfg.Redacted()
	if r.SourceControl.Token != "********" || r.LLM.APIKey != "********" {
		t.Errorf("secrets not masked: %+v %+v", r.SourceControl, r.LLM)
	}
	if r.IssueTracker.Token != "" {
		t.Errorf("empty secret should stay empty, got %q", r.IssueTracker.Token)
	}
	if cfg.SourceControl.Token != "secret" {
		t.Error("Redacted must not modify the original")
	}
}
