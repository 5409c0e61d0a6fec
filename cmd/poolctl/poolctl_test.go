package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/regolith-labs/ore-cli-sub000/poolclient"
	"github.com/regolith-labs/ore-cli-sub000/pooljson"
)

func TestRunCommand(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/address", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(pooljson.AddressResult{Address: "pool"})
	})
	mux.HandleFunc("/member/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(pooljson.MemberResult{ID: 7, Authority: r.URL.Path[len("/member/"):]})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	env := &commandEnv{api: poolclient.NewAPI(srv.URL, srv.Client()), cfg: &config{}}
	ctx := context.Background()

	t.Run("test_1", func(t *testing.T) {
		res, err := runCommand(ctx, env, "address", nil)
		if err != nil {
			t.Fatal(err.Error())
		}
		if res.(map[string]string)["address"] != "pool" {
			t.Errorf("unexpected result %v", res)
		}
	})

	t.Run("test_2", func(t *testing.T) {
		res, err := runCommand(ctx, env, "member", []string{"abc"})
		if err != nil {
			t.Fatal(err.Error())
		}
		member := res.(*pooljson.MemberResult)
		if member.ID != 7 || member.Authority != "abc" {
			t.Errorf("unexpected member %+v", member)
		}
	})

	t.Run("test_3", func(t *testing.T) {
		if _, err := runCommand(ctx, env, "member", nil); err == nil {
			t.Error("missing argument accepted")
		}
		if _, err := runCommand(ctx, env, "mine", nil); err == nil {
			t.Error("unknown command accepted")
		}
		if _, err := runCommand(ctx, env, "history", []string{"abc"}); err == nil {
			t.Error("history ran without a database")
		}
		if _, err := runCommand(ctx, env, "failed", []string{"zero"}); err == nil {
			t.Error("invalid limit accepted")
		}
		if _, err := runCommand(ctx, env, "tx", nil); err == nil {
			t.Error("missing signature accepted")
		}
	})
}
