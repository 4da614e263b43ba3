package notion

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	pages   []string
	cursors []Cursor
	sizes   []int
	err     error
}

func (s *fakeSource) fetch(tb testing.TB) FetchFunc {
	return func(_ context.Context, pageSize int, cursor Cursor) (any, error) {
		s.cursors = append(s.cursors, cursor)
		s.sizes = append(s.sizes, pageSize)
		if s.err != nil {
			return nil, s.err
		}
		i := len(s.cursors) - 1
		if i >= len(s.pages) {
			tb.Fatalf("unexpected fetch #%d with cursor %q", i+1, cursor)
		}
		return decodeString(tb, s.pages[i]), nil
	}
}

func listPage(next string, ids ...string) string {
	results := ""
	for i, id := range ids {
		if i > 0 {
			results += ","
		}
		results += fmt.Sprintf(`{"id":%q,"url":"u","created_time":"t","created_by":{},"last_edited_time":"t","last_edited_by":{},"archived":false,"properties":{}}`, id)
	}
	cursor := "null"
	if next != "" {
		cursor = fmt.Sprintf("%q", next)
	}
	return fmt.Sprintf(`{"object":"list","results":[%s],"next_cursor":%s,"has_more":%t}`, results, cursor, next != "")
}

func ids(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestFetchAll_FollowsCursor(t *testing.T) {
	t.Parallel()

	src := &fakeSource{pages: []string{
		listPage("CUR1", "a", "b"),
		listPage("", "c"),
	}}
	f := NewFetcher(src.fetch(t), NewMapper(NewSchema(), PolicyLenient, nil))

	recs, err := f.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(recs))
	assert.Equal(t, []Cursor{"", "CUR1"}, src.cursors)
	assert.Equal(t, []int{DefaultPageSize, DefaultPageSize}, src.sizes)
	assert.Equal(t, 2, f.Pages())
}

func TestFetchAll_SinglePage(t *testing.T) {
	t.Parallel()

	src := &fakeSource{pages: []string{listPage("", "only")}}
	f := NewFetcher(src.fetch(t), NewMapper(NewSchema(), PolicyLenient, nil), WithPageSize(50))

	recs, err := f.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, ids(recs))
	assert.Equal(t, []int{50}, src.sizes)
}

func TestFetchAll_EmptyCursorEnds(t *testing.T) {
	t.Parallel()

	src := &fakeSource{pages: []string{
		`{"object":"list","results":[],"next_cursor":"","has_more":true}`,
	}}
	f := NewFetcher(src.fetch(t), NewMapper(NewSchema(), PolicyLenient, nil))

	recs, err := f.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Equal(t, 1, f.Pages())
}

func TestFetchAll_PageLimit(t *testing.T) {
	t.Parallel()

	calls := 0
	loop := func(_ context.Context, _ int, _ Cursor) (any, error) {
		calls++
		return decodeString(t, listPage("again", fmt.Sprint(calls))), nil
	}
	f := NewFetcher(loop, NewMapper(NewSchema(), PolicyLenient, nil), WithMaxPages(3))

	recs, err := f.FetchAll(context.Background())
	if !errors.Is(err, ErrPageLimit) {
		t.Fatalf("err = %v, want ErrPageLimit", err)
	}
	assert.Nil(t, recs)
	assert.Equal(t, 3, calls)
}

func TestFetchAll_WrongKindAborts(t *testing.T) {
	t.Parallel()

	src := &fakeSource{pages: []string{
		listPage("CUR1", "a"),
		`{"object":"error","status":400,"code":"validation_error"}`,
	}}
	f := NewFetcher(src.fetch(t), NewMapper(NewSchema(), PolicyLenient, nil))

	recs, err := f.FetchAll(context.Background())
	if !errors.Is(err, ErrUnexpectedObjectKind) {
		t.Fatalf("err = %v, want ErrUnexpectedObjectKind", err)
	}
	assert.Nil(t, recs)
}

func TestFetchAll_TransportError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	src := &fakeSource{err: boom}
	f := NewFetcher(src.fetch(t), NewMapper(NewSchema(), PolicyLenient, nil))

	_, err := f.FetchAll(context.Background())
	if !errors.Is(err, ErrTransport) || !errors.Is(err, boom) {
		t.Fatalf("err = %v, want ErrTransport wrapping the cause", err)
	}
	assert.Len(t, src.cursors, 1)
}

func TestEach_CallbackErrorStops(t *testing.T) {
	t.Parallel()

	src := &fakeSource{pages: []string{listPage("CUR1", "a", "b")}}
	f := NewFetcher(src.fetch(t), NewMapper(NewSchema(), PolicyLenient, nil))

	stop := errors.New("stop")
	var seen []string
	err := f.Each(context.Background(), func(r Record) error {
		seen = append(seen, r.ID)
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("err = %v, want stop", err)
	}
	assert.Equal(t, []string{"a"}, seen)
	assert.Len(t, src.cursors, 1)
}

func TestEach_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{pages: []string{listPage("", "a")}}
	f := NewFetcher(src.fetch(t), NewMapper(NewSchema(), PolicyLenient, nil))

	err := f.Each(ctx, func(Record) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	assert.Empty(t, src.cursors)
}

func TestEach_NilFetch(t *testing.T) {
	t.Parallel()

	f := NewFetcher(nil, NewMapper(NewSchema(), PolicyLenient, nil))
	err := f.Each(context.Background(), func(Record) error { return nil })
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}

func TestFetchAll_ReusedFetcherCountsPerRun(t *testing.T) {
	t.Parallel()

	pages := []string{
		listPage("CUR1", "a"),
		listPage("", "b"),
		listPage("CUR1", "c"),
		listPage("", "d"),
	}
	calls := 0
	next := func(_ context.Context, _ int, _ Cursor) (any, error) {
		if calls >= len(pages) {
			return nil, errors.New("no more pages")
		}
		calls++
		return decodeString(t, pages[calls-1]), nil
	}
	f := NewFetcher(next, NewMapper(NewSchema(), PolicyLenient, nil), WithMaxPages(2))

	first, err := f.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(first))
	assert.Equal(t, 2, f.Pages())

	second, err := f.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, ids(second))
	assert.Equal(t, 2, f.Pages())
}
