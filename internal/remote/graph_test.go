package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGraphClient_Follow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("HTTPメソッド = %s, want POST", r.Method)
		}
		if r.URL.Path != "/follows" {
			t.Errorf("パス = %s, want /follows", r.URL.Path)
		}

		var req followRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("リクエストのデコードに失敗: %v", err)
		}
		if req.Follower != "principal-1" || req.Followee != "principal-2" {
			t.Errorf("follow = %s -> %s, want principal-1 -> principal-2", req.Follower, req.Followee)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewGraphClient(server.URL, server.Client(), newTestLogger(&buf))

	if err := c.Follow(context.Background(), "principal-1", "principal-2"); err != nil {
		t.Fatalf("Follow がエラーを返した: %v", err)
	}
}

func TestGraphClient_Unfollow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("HTTPメソッド = %s, want DELETE", r.Method)
		}
		if r.URL.Path != "/follows" {
			t.Errorf("パス = %s, want /follows", r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewGraphClient(server.URL, server.Client(), newTestLogger(&buf))

	if err := c.Unfollow(context.Background(), "principal-1", "principal-2"); err != nil {
		t.Fatalf("Unfollow がエラーを返した: %v", err)
	}
}

func TestGraphClient_Follow_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewGraphClient(server.URL, server.Client(), newTestLogger(&buf))

	if err := c.Follow(context.Background(), "a", "b"); err == nil {
		t.Fatal("500はエラーを返すべき")
	}
}

func TestGraphClient_GetFollowers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/followers/principal-1" {
			t.Errorf("パス = %s, want /followers/principal-1", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]string{"principal-2", "principal-3"})
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewGraphClient(server.URL, server.Client(), newTestLogger(&buf))

	followers, err := c.GetFollowers(context.Background(), "principal-1")
	if err != nil {
		t.Fatalf("GetFollowers がエラーを返した: %v", err)
	}
	if len(followers) != 2 {
		t.Fatalf("フォロワー数 = %d, want 2", len(followers))
	}
	if followers[0] != "principal-2" {
		t.Errorf("followers[0] = %q, want %q", followers[0], "principal-2")
	}
}

func TestGraphClient_GetFollowing_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/following/principal-1" {
			t.Errorf("パス = %s, want /following/principal-1", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewGraphClient(server.URL, server.Client(), newTestLogger(&buf))

	following, err := c.GetFollowing(context.Background(), "principal-1")
	if err != nil {
		t.Fatalf("GetFollowing がエラーを返した: %v", err)
	}
	if len(following) != 0 {
		t.Errorf("フォロー中数 = %d, want 0", len(following))
	}
}
