package notionapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notionsqlite/internal/datasource/notionapi/notiontest"
	"notionsqlite/internal/notion"
)

const dbID = "f2bf4cd7-b8d1-44fc-856e-8fe60c128b58"

func fixture(tb testing.TB, name string) string {
	tb.Helper()
	b, err := os.ReadFile(filepath.Join("..", "..", "notion", "testdata", name))
	if err != nil {
		tb.Fatalf("read fixture: %v", err)
	}
	return string(b)
}

func newClient(tb testing.TB, baseURL, key string) *Client {
	tb.Helper()
	c, err := New(Config{BaseURL: baseURL, APIKey: key})
	require.NoError(tb, err)
	return c
}

func TestGetDatabase(t *testing.T) {
	t.Parallel()

	srv := notiontest.New(t, "secret", dbID, fixture(t, "database.json"))
	c := newClient(t, srv.URL, "secret")

	doc, err := c.GetDatabase(context.Background(), dbID)
	require.NoError(t, err)

	schema, err := notion.ParseSchema(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Age", "Animal", "Name"}, schema.SortedNames())

	h := srv.Headers()[0]
	assert.Equal(t, "Bearer secret", h.Get("Authorization"))
	assert.Equal(t, DefaultNotionVersion, h.Get("Notion-Version"))
}

func TestQueryDatabase_RequestShape(t *testing.T) {
	t.Parallel()

	srv := notiontest.New(t, "secret", dbID, "",
		`{"object":"list","results":[],"next_cursor":"c2","has_more":true}`,
		`{"object":"list","results":[],"next_cursor":null,"has_more":false}`,
	)
	c := newClient(t, srv.URL, "secret")
	ctx := context.Background()

	_, err := c.QueryDatabase(ctx, dbID, 10, "")
	require.NoError(t, err)
	_, err = c.Fetcher(dbID)(ctx, 25, "c2")
	require.NoError(t, err)

	q := srv.Queries()
	require.Len(t, q, 2)
	assert.Equal(t, 10, q[0].PageSize)
	assert.Equal(t, "", q[0].StartCursor)
	assert.Equal(t, []map[string]string{{"timestamp": "created_time", "direction": "ascending"}}, q[0].Sorts)
	assert.Equal(t, 25, q[1].PageSize)
	assert.Equal(t, "c2", q[1].StartCursor)
}

func TestFetcher_DrivesPagination(t *testing.T) {
	t.Parallel()

	srv := notiontest.New(t, "k", dbID, fixture(t, "database.json"), fixture(t, "list.json"),
		`{"object":"list","results":[],"next_cursor":null,"has_more":false}`)
	c := newClient(t, srv.URL, "k")
	ctx := context.Background()

	doc, err := c.GetDatabase(ctx, dbID)
	require.NoError(t, err)
	schema, err := notion.ParseSchema(doc)
	require.NoError(t, err)

	f := notion.NewFetcher(c.Fetcher(dbID), notion.NewMapper(schema, notion.PolicyLenient, nil))
	recs, err := f.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "a75b9220-455d-48e1-a36b-c581a345f777", recs[0].ID)

	q := srv.Queries()
	require.Len(t, q, 2)
	assert.Equal(t, "e6c9af10-44ec-4a48-a969-156ba5438ff0", q[1].StartCursor)
}

func TestAPIError(t *testing.T) {
	t.Parallel()

	srv := notiontest.New(t, "right", dbID, "{}")

	_, err := newClient(t, srv.URL, "wrong").GetDatabase(context.Background(), dbID)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "err = %v", err)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "unauthorized", apiErr.Code)

	_, err = newClient(t, srv.URL, "right").GetDatabase(context.Background(), "other")
	require.True(t, errors.As(err, &apiErr), "err = %v", err)
	assert.Equal(t, "object_not_found", apiErr.Code)
	assert.Contains(t, apiErr.Error(), "status 404: object_not_found")
}

func TestNonJSONError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL, "k").GetDatabase(context.Background(), dbID)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "err = %v", err)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "<html>bad gateway</html>", apiErr.Message)
}

func TestOKButNotJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL, "k").GetDatabase(context.Background(), dbID)
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = New(Config{APIKey: "k", BaseURL: "::not a url"})
	assert.Error(t, err)

	c, err := New(Config{APIKey: "k", BaseURL: "https://example.com/"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", c.baseURL)

	_, err = c.GetDatabase(context.Background(), "")
	assert.Error(t, err)
}

func TestDatabase_SchemaAndFilter(t *testing.T) {
	t.Parallel()

	empty := `{"object":"list","results":[],"next_cursor":null,"has_more":false}`
	srv := notiontest.New(t, "k", dbID, fixture(t, "database.json"), empty, empty)
	c := newClient(t, srv.URL, "k")
	ctx := context.Background()

	filter := map[string]any{"property": "Animal", "select": map[string]any{"equals": "cat"}}
	db := c.Database(dbID, filter)

	doc, err := db.Schema(ctx)
	require.NoError(t, err)
	_, err = notion.ParseSchema(doc)
	require.NoError(t, err)

	_, err = db.Fetch(ctx, 10, "")
	require.NoError(t, err)
	_, err = c.Database(dbID, map[string]any{}).Fetch(ctx, 10, "")
	require.NoError(t, err)

	q := srv.Queries()
	require.Len(t, q, 2)
	assert.Equal(t, filter, q[0].Filter)
	assert.Nil(t, q[1].Filter)
}
