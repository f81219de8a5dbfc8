package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sc "ngramcorrector/internal/corrector"
	"ngramcorrector/internal/lexicon"
	"ngramcorrector/internal/ngramindex"
	"ngramcorrector/internal/phonetic"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	b := ngramindex.NewBuilder()
	_, err := b.Load(strings.NewReader("the\t100000\nrefrigerator\t120\nis\t40000\ncold\t900\n"))
	require.NoError(t, err)
	mem := b.Memory()
	lex, err := lexicon.New(mem.Vocabulary())
	require.NoError(t, err)
	phon, err := phonetic.New(mem.Vocabulary())
	require.NoError(t, err)
	c, err := sc.New(mem, lex, phon, nil)
	require.NoError(t, err)
	return newMux(c, slog.New(slog.DiscardHandler))
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestCorrectEndpoint(t *testing.T) {
	mux := newTestMux(t)

	rec := do(mux, http.MethodPost, "/api/v1/correct", `{"text":"The refridgerator is cold"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var res sc.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "The refrigerator is cold", res.Corrected)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, "refrigerator", res.Applied[0].Replacement)
	assert.Contains(t, rec.Body.String(), `"phase":"unknown"`)

	rec = do(mux, http.MethodPost, "/api/v1/correct", `{"text":""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"original":"","corrected":"","applied":[]}`, rec.Body.String())
	rec = do(mux, http.MethodPost, "/api/v1/correct", `{"text":" \n"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"original":" \n","corrected":" \n","applied":[]}`, rec.Body.String())
	rec = do(mux, http.MethodPost, "/api/v1/suggest", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"suggestions":[]}`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodPost, "/api/v1/correct", `not json`).Code)
	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodGet, "/api/v1/correct", "").Code)
}

func TestSuggestEndpoint(t *testing.T) {
	mux := newTestMux(t)

	rec := do(mux, http.MethodPost, "/api/v1/suggest", `{"text":"refridgerator"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Suggestions []sc.Suggestion `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Suggestions)
	assert.Equal(t, sc.PhaseUnknown, body.Suggestions[0].Phase)
	assert.Equal(t, "refrigerator", body.Suggestions[0].Preview)

	rec = do(mux, http.MethodPost, "/api/v1/suggest", `{"text":"the refrigerator is cold"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"suggestions":[]}`, rec.Body.String())
}

func TestAlternativesEndpoint(t *testing.T) {
	mux := newTestMux(t)
	rec := do(mux, http.MethodGet, "/api/v1/alternatives/refridgerator", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"word":"refridgerator","alternatives":["refrigerator"]}`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodGet, "/api/v1/alternatives/", "").Code)
}

func TestCustomWordEndpoints(t *testing.T) {
	mux := newTestMux(t)

	assert.Equal(t, http.StatusCreated, do(mux, http.MethodPost, "/api/v1/custom-word", `{"word":"refridgerator"}`).Code)
	rec := do(mux, http.MethodPost, "/api/v1/correct", `{"text":"refridgerator"}`)
	assert.Contains(t, rec.Body.String(), `"corrected":"refridgerator"`)

	assert.Equal(t, http.StatusOK, do(mux, http.MethodDelete, "/api/v1/custom-word/refridgerator", "").Code)
	rec = do(mux, http.MethodPost, "/api/v1/correct", `{"text":"refridgerator"}`)
	assert.Contains(t, rec.Body.String(), `"corrected":"refrigerator"`)

	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodPost, "/api/v1/custom-word", `{"word":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodDelete, "/api/v1/custom-word/", "").Code)
	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodGet, "/api/v1/custom-word/x", "").Code)
}

type failing struct{ err error }

func (f failing) Correct(context.Context, string) (sc.Result, error)       { return sc.Result{}, f.err }
func (f failing) Suggest(context.Context, string) ([]sc.Suggestion, error) { return nil, f.err }
func (f failing) Alternatives(string) []string                             { return nil }
func (f failing) AddCustomWord(context.Context, string) error              { return f.err }
func (f failing) RemoveCustomWord(context.Context, string) error           { return f.err }

func TestServiceErrors(t *testing.T) {
	mux := newMux(failing{err: errors.New("redis: connection refused")}, slog.New(slog.DiscardHandler))

	rec := do(mux, http.MethodPost, "/api/v1/custom-word", `{"word":"grpc"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")

	assert.Equal(t, http.StatusInternalServerError, do(mux, http.MethodDelete, "/api/v1/custom-word/grpc", "").Code)
	assert.Equal(t, http.StatusInternalServerError, do(mux, http.MethodPost, "/api/v1/correct", `{"text":"x"}`).Code)
	assert.Equal(t, http.StatusInternalServerError, do(mux, http.MethodPost, "/api/v1/suggest", `{"text":"x"}`).Code)

	rec = do(mux, http.MethodGet, "/api/v1/alternatives/x", "")
	assert.JSONEq(t, `{"word":"x","alternatives":[]}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	mux := newTestMux(t)
	do(mux, http.MethodPost, "/api/v1/correct", `{"text":"cold"}`)

	rec := do(mux, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "corrector_http_requests_total")
}
