package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"doc-translator/internal/types"
)

func newTestClient(apiURL, rawURL string) *Client {
	c := NewClient("test-token")
	c.SetBaseURLs(apiURL, rawURL)
	return c
}

func TestListTree(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/huggingface/transformers/git/trees/main" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("recursive") != "1" {
			t.Error("expected recursive=1")
		}
		if r.Header.Get("Authorization") != "token test-token" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{
			"tree": [
				{"path": "docs/source/en/index.md", "type": "blob"},
				{"path": "docs/source/en", "type": "tree"},
				{"path": "docs/source/en/installation.md", "type": "blob"}
			],
			"truncated": false
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL)
	paths, err := client.ListTree(context.Background(), "huggingface", "transformers", "main")
	if err != nil {
		t.Fatalf("ListTree failed: %v", err)
	}
	want := []string{"docs/source/en/index.md", "docs/source/en/installation.md"}
	if len(paths) != len(want) {
		t.Fatalf("got %d paths, want %d", len(paths), len(want))
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestListOpenPullRequestsPaged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		if r.URL.Query().Get("state") != "open" {
			t.Error("expected state=open")
		}
		var batch []PullRequest
		switch page {
		case "1":
			for i := 0; i < 100; i++ {
				batch = append(batch, PullRequest{Number: i + 1, Title: fmt.Sprintf("PR %d", i+1)})
			}
		case "2":
			batch = []PullRequest{{Number: 101, Title: "🌐 [i18n-KO] Translated `index.md` to Korean"}}
		default:
			t.Errorf("unexpected page: %s", page)
		}
		json.NewEncoder(w).Encode(batch)
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL)
	prs, err := client.ListOpenPullRequests(context.Background(), "huggingface", "transformers")
	if err != nil {
		t.Fatalf("ListOpenPullRequests failed: %v", err)
	}
	if len(prs) != 101 {
		t.Errorf("got %d pull requests, want 101", len(prs))
	}
	if prs[100].Number != 101 {
		t.Errorf("last PR number = %d, want 101", prs[100].Number)
	}
}

func TestCreateBranch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Ref string `json:"ref"`
			SHA string `json:"sha"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.Ref != "refs/heads/ko-index" {
			t.Errorf("ref = %q, want refs/heads/ko-index", body.Ref)
		}
		if body.SHA != "abc123" {
			t.Errorf("sha = %q, want abc123", body.SHA)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ref": "refs/heads/ko-index"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL)
	if err := client.CreateBranch(context.Background(), "me", "transformers", "ko-index", "abc123"); err != nil {
		t.Fatalf("CreateBranch failed: %v", err)
	}
}

func TestCreateBranchAlreadyExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message": "Reference already exists"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL)
	err := client.CreateBranch(context.Background(), "me", "transformers", "ko-index", "abc123")
	if !errors.Is(err, ErrBranchExists) {
		t.Errorf("expected ErrBranchExists, got %v", err)
	}
}

func TestPutFileNew(t *testing.T) {
	var gotContent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PUT" {
			t.Errorf("unexpected method: %s", r.Method)
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		gotContent, _ = body["content"].(string)
		if body["branch"] != "ko-index" {
			t.Errorf("branch = %v, want ko-index", body["branch"])
		}
		if body["message"] != "docs: ko: index.md" {
			t.Errorf("message = %v", body["message"])
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"content": {"html_url": "https://example.com/f"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL)
	err := client.PutFile(context.Background(), "me", "transformers", "ko-index",
		"docs/source/ko/index.md", "docs: ko: index.md", []byte("# 제목\n"))
	if err != nil {
		t.Fatalf("PutFile failed: %v", err)
	}
	decoded, err := base64.StdEncoding.DecodeString(gotContent)
	if err != nil {
		t.Fatalf("content is not base64: %v", err)
	}
	if string(decoded) != "# 제목\n" {
		t.Errorf("decoded content = %q", decoded)
	}
}

func TestPutFileUpdatesExisting(t *testing.T) {
	putCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" {
			if r.URL.Query().Get("ref") != "ko-index" {
				t.Errorf("ref = %q, want ko-index", r.URL.Query().Get("ref"))
			}
			w.Write([]byte(`{"sha": "existing-sha"}`))
			return
		}
		putCalls++
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if putCalls == 1 {
			// First attempt has no SHA, reject it like GitHub does.
			if _, ok := body["sha"]; ok {
				t.Error("first PUT should not carry a SHA")
			}
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"message": "sha wasn't supplied"}`))
			return
		}
		if body["sha"] != "existing-sha" {
			t.Errorf("second PUT sha = %v, want existing-sha", body["sha"])
		}
		w.Write([]byte(`{"content": {}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL)
	err := client.PutFile(context.Background(), "me", "transformers", "ko-index",
		"docs/source/ko/index.md", "docs: ko: index.md", []byte("updated"))
	if err != nil {
		t.Fatalf("PutFile failed: %v", err)
	}
	if putCalls != 2 {
		t.Errorf("putCalls = %d, want 2", putCalls)
	}
}

func TestOpenPullRequestDraftFromFork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/huggingface/transformers/pulls" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["head"] != "me:ko-index" {
			t.Errorf("head = %v, want me:ko-index", body["head"])
		}
		if body["base"] != "main" {
			t.Errorf("base = %v, want main", body["base"])
		}
		if body["draft"] != true {
			t.Error("expected draft pull request")
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"number": 42, "html_url": "https://github.com/huggingface/transformers/pull/42"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL)
	pr, err := client.OpenPullRequest(context.Background(), "huggingface", "transformers",
		"🌐 [i18n-KO] Translated `index.md` to Korean", "body", "me:ko-index", "main")
	if err != nil {
		t.Fatalf("OpenPullRequest failed: %v", err)
	}
	if pr.Number != 42 {
		t.Errorf("number = %d, want 42", pr.Number)
	}
}

func TestPostReview(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/huggingface/transformers/pulls/42/reviews" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["event"] != "REQUEST_CHANGES" {
			t.Errorf("event = %v", body["event"])
		}
		w.Write([]byte(`{"id": 1}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL)
	comments := []ReviewComment{{Path: "docs/source/ko/index.md", Line: 3, Body: "awkward phrasing"}}
	err := client.PostReview(context.Background(), "huggingface", "transformers", 42,
		"REQUEST_CHANGES", "found issues", comments)
	if err != nil {
		t.Fatalf("PostReview failed: %v", err)
	}
}

func TestRawContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/huggingface/transformers/main/docs/source/en/index.md" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte("# Transformers\n"))
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL)
	content, err := client.RawContent(context.Background(), "huggingface", "transformers", "main", "docs/source/en/index.md")
	if err != nil {
		t.Fatalf("RawContent failed: %v", err)
	}
	if content != "# Transformers\n" {
		t.Errorf("content = %q", content)
	}
}

func TestRawContentNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL)
	_, err := client.RawContent(context.Background(), "huggingface", "transformers", "main", "missing.md")
	if !types.IsCode(err, types.ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}
}

func TestValidateToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "token test-token" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{"login": "me"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL)
	if err := client.ValidateToken(context.Background()); err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
}

func TestValidateTokenUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL)
	err := client.ValidateToken(context.Background())
	if !types.IsCode(err, types.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestValidateTokenMissing(t *testing.T) {
	client := NewClient("")
	err := client.ValidateToken(context.Background())
	if !types.IsCode(err, types.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestPullRequestDiff(t *testing.T) {
	const diff = "diff --git a/docs/source/ko/index.md b/docs/source/ko/index.md\n+# 소개"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/huggingface/transformers/pulls/42" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Accept") != "application/vnd.github.v3.diff" {
			t.Errorf("unexpected accept header: %s", r.Header.Get("Accept"))
		}
		w.Write([]byte(diff))
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL)
	got, err := client.PullRequestDiff(context.Background(), "huggingface", "transformers", 42)
	if err != nil {
		t.Fatalf("PullRequestDiff failed: %v", err)
	}
	if got != diff {
		t.Errorf("diff = %q, want %q", got, diff)
	}
}

func TestPullRequestDiffNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL)
	_, err := client.PullRequestDiff(context.Background(), "huggingface", "transformers", 42)
	if !types.IsCode(err, types.ErrGitHubAPI) {
		t.Errorf("expected ErrGitHubAPI, got %v", err)
	}
}
