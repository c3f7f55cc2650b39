package integration

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/go-github/v68/github"
)

// releaseDrafterYAML is served as .github/release-drafter.yml of octo/hello
const releaseDrafterYAML = `template: |
  ## What's changed
  $CHANGES
categories:
  - title: Features
    labels: [feature]
label-versioning:
  enabled: true
`

// newFakeGitHub serves two repositories: octo/hello with one merged pull
// request since v1.2.0, and octo/empty without a drafter configuration.
func newFakeGitHub() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /repos/octo/hello", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, &github.Repository{
			Name:          github.Ptr("hello"),
			DefaultBranch: github.Ptr("main"),
		})
	})
	mux.HandleFunc("GET /repos/octo/hello/contents/.github/release-drafter.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.github.raw+json")
		_, _ = w.Write([]byte(releaseDrafterYAML))
	})
	mux.HandleFunc("GET /repos/octo/hello/releases", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []*github.RepositoryRelease{{
			ID:        github.Ptr(int64(1)),
			TagName:   github.Ptr("v1.2.0"),
			Name:      github.Ptr("v1.2.0"),
			Draft:     github.Ptr(false),
			CreatedAt: &github.Timestamp{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		}})
	})
	mux.HandleFunc("GET /repos/octo/hello/commits", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []*github.RepositoryCommit{{
			SHA:    github.Ptr("aaa111"),
			Commit: &github.Commit{Message: github.Ptr("Merge pull request #10 from alice/option")},
			Author: &github.User{Login: github.Ptr("alice")},
		}})
	})
	mux.HandleFunc("GET /repos/octo/hello/pulls", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []*github.PullRequest{{
			Number:         github.Ptr(10),
			Title:          github.Ptr("Add option"),
			User:           &github.User{Login: github.Ptr("alice")},
			MergedAt:       &github.Timestamp{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
			MergeCommitSHA: github.Ptr("aaa111"),
			Labels:         []*github.Label{{Name: github.Ptr("feature")}, {Name: github.Ptr("minor")}},
		}})
	})
	mux.HandleFunc("POST /repos/octo/hello/releases", func(w http.ResponseWriter, r *http.Request) {
		var in github.RepositoryRelease
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		in.ID = github.Ptr(int64(2))
		writeJSON(w, http.StatusCreated, &in)
	})
	mux.HandleFunc("PATCH /repos/octo/hello/releases/{id}", func(w http.ResponseWriter, r *http.Request) {
		var in github.RepositoryRelease
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		in.ID = github.Ptr(id)
		writeJSON(w, http.StatusOK, &in)
	})

	mux.HandleFunc("GET /repos/octo/empty", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, &github.Repository{
			Name:          github.Ptr("empty"),
			DefaultBranch: github.Ptr("main"),
		})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
