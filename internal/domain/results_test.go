package domain

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestResults_AssetsInMemory(t *testing.T) {
	ctx := context.Background()
	r := NewResults("ua", mustQuery(t, defaultQueryParams()), ResultsOptions{})

	require.NoError(t, r.SaveHTML(ctx, "results", "<html>outbound</html>"))
	require.NoError(t, r.SaveHTML(ctx, "partners1", "<html>partners</html>"))
	require.NoError(t, r.SaveJSON(ctx, "", map[string]int{"count": 3}))

	html, err := r.HTML(ctx, "partners1")
	require.NoError(t, err)
	assert.Equal(t, "<html>partners</html>", html)

	first, err := r.HTML(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "<html>outbound</html>", first)

	var v map[string]int
	require.NoError(t, r.JSON(ctx, "results", &v))
	assert.Equal(t, 3, v["count"])

	assets := r.Assets()
	assert.Len(t, assets.HTML, 2)
	assert.Len(t, assets.JSON, 1)
	assert.Equal(t, "UA", r.Engine())
	assert.NotEmpty(t, r.ID())
	assert.True(t, r.OK())
}

func TestResults_SaveErrors(t *testing.T) {
	ctx := context.Background()
	r := NewResults("UA", mustQuery(t, defaultQueryParams()), ResultsOptions{})

	require.NoError(t, r.SaveHTML(ctx, "results", "a"))
	assert.Error(t, r.SaveHTML(ctx, "results", "b"), "duplicate name")
	assert.Error(t, r.SaveJSON(ctx, "bad", "{not json"))
	assert.Error(t, r.Screenshot(ctx, "shot"), "no page")

	_, err := r.HTML(ctx, "missing")
	assert.Error(t, err)
}

func TestResults_AssetsOnDisk(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockAssetStore(ctrl)
	ctx := context.Background()

	q := mustQuery(t, defaultQueryParams()).WithAssets(AssetOptions{
		HTMLPath: "data/ua-1.html",
		Compress: true,
	})
	r := NewResults("UA", q, ResultsOptions{Store: store})

	store.EXPECT().Write(gomock.Any(), "data/ua-1.html.gz", []byte("<p>1</p>"), true).Return(nil)
	store.EXPECT().Write(gomock.Any(), "data/ua-1-partners.html.gz", []byte("<p>2</p>"), true).Return(nil)
	store.EXPECT().Read(gomock.Any(), "data/ua-1-partners.html.gz").Return([]byte("<p>2</p>"), nil)

	require.NoError(t, r.SaveHTML(ctx, "results", "<p>1</p>"))
	require.NoError(t, r.SaveHTML(ctx, "partners", "<p>2</p>"))

	html, err := r.HTML(ctx, "partners")
	require.NoError(t, err)
	assert.Equal(t, "<p>2</p>", html)

	assets := r.Assets()
	assert.Empty(t, assets.HTML[0].Contents)
}

func TestResults_Screenshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	page := NewMockPage(ctrl)
	ctx := context.Background()

	page.EXPECT().Screenshot(gomock.Any()).Return([]byte("png"), nil)

	r := NewResults("UA", mustQuery(t, defaultQueryParams()), ResultsOptions{Page: page})
	assert.False(t, r.HasScreenshot())
	require.NoError(t, r.Screenshot(ctx, "results"))
	assert.True(t, r.HasScreenshot())
}

func TestResults_ParseIsMemoized(t *testing.T) {
	ctrl := gomock.NewController(t)
	parser := NewMockParser(ctrl)
	ctx := context.Background()

	f := mustFlight(t, []Segment{ua851(t)}, awardParams(economySaver, 1))
	parser.EXPECT().Parse(gomock.Any(), gomock.Any()).Return(Parsed{Flights: []*Flight{f}}, nil).Times(1)

	r := NewResults("UA", mustQuery(t, defaultQueryParams()), ResultsOptions{Parser: parser})

	flights, err := r.Flights(ctx)
	require.NoError(t, err)
	awards, err := r.Awards(ctx)
	require.NoError(t, err)
	again, err := r.Flights(ctx)
	require.NoError(t, err)

	assert.Len(t, flights, 1)
	assert.Len(t, awards, 1)
	assert.Same(t, flights[0], again[0])
}

func TestResults_ParserErrorIsRecorded(t *testing.T) {
	ctrl := gomock.NewController(t)
	parser := NewMockParser(ctrl)
	ctx := context.Background()

	parseErr := NewParserError("UA", errors.New("unexpected token"))
	parser.EXPECT().Parse(gomock.Any(), gomock.Any()).Return(Parsed{}, parseErr).Times(1)

	r := NewResults("UA", mustQuery(t, defaultQueryParams()), ResultsOptions{Parser: parser})

	_, err := r.Flights(ctx)
	assert.True(t, IsParserError(err))
	_, err = r.Awards(ctx)
	assert.True(t, IsParserError(err), "cached failure is returned again")

	assert.False(t, r.OK())
	assert.Equal(t, KindParser, Classify(r.Err()))
}

func TestResults_IntegrityErrorIsNotRecorded(t *testing.T) {
	ctrl := gomock.NewController(t)
	parser := NewMockParser(ctrl)

	orphan := mustFlight(t, []Segment{ua851(t)})
	parser.EXPECT().Parse(gomock.Any(), gomock.Any()).Return(Parsed{Flights: []*Flight{orphan}}, nil)

	r := NewResults("UA", mustQuery(t, defaultQueryParams()), ResultsOptions{Parser: parser})

	_, err := r.Flights(context.Background())
	assert.True(t, errors.Is(err, ErrOrphanedFlight))
	assert.True(t, r.OK(), "integrity errors propagate instead of landing on results")
}

func TestResults_WrappedIntegrityErrorIsNotRecorded(t *testing.T) {
	ctrl := gomock.NewController(t)
	parser := NewMockParser(ctrl)

	integrity := &IntegrityError{Err: ErrNegativeDuration, Detail: "UA851"}
	parser.EXPECT().Parse(gomock.Any(), gomock.Any()).Return(Parsed{}, NewParserError("UA", integrity))

	r := NewResults("UA", mustQuery(t, defaultQueryParams()), ResultsOptions{Parser: parser})

	_, err := r.Awards(context.Background())
	assert.ErrorIs(t, err, ErrNegativeDuration)
	assert.Equal(t, KindIntegrity, Classify(err))
	assert.True(t, r.OK())
}

func TestResults_SetErrorFirstWins(t *testing.T) {
	r := NewResults("UA", nil, ResultsOptions{})
	first := errors.New("first")

	r.SetError(first)
	r.SetError(errors.New("second"))

	assert.Equal(t, first, r.Err())
}

func TestResults_PersistAndReload(t *testing.T) {
	ctrl := gomock.NewController(t)
	parser := NewMockParser(ctrl)
	ctx := context.Background()

	registry, err := NewRegistry(Site{Config: newTestConfig(), Parser: parser})
	require.NoError(t, err)

	created := time.Date(2019, 9, 1, 8, 0, 0, 0, time.UTC)
	r := NewResults("UA", mustQuery(t, defaultQueryParams()), ResultsOptions{CreatedAt: created})
	require.NoError(t, r.SaveJSON(ctx, "results", `{"flights":[]}`))
	r.SetError(NewSearcherError("UA", "search", errors.New("captcha")))

	data, err := json.Marshal(r)
	require.NoError(t, err)

	loaded, err := LoadResults(data, registry, nil)
	require.NoError(t, err)

	assert.Equal(t, r.ID(), loaded.ID())
	assert.Equal(t, "UA", loaded.Engine())
	assert.True(t, created.Equal(loaded.CreatedAt()))
	assert.Equal(t, r.Query().String(), loaded.Query().String())
	assert.False(t, loaded.OK())
	assert.Contains(t, loaded.Err().Error(), "captcha")

	var v map[string]interface{}
	require.NoError(t, loaded.JSON(ctx, "results", &v))

	parser.EXPECT().Parse(gomock.Any(), loaded).Return(Parsed{}, nil)
	flights, err := loaded.Flights(ctx)
	require.NoError(t, err)
	assert.Empty(t, flights)
}

func TestLoadResults_AssetWithoutContents(t *testing.T) {
	registry, err := NewRegistry(Site{Config: newTestConfig()})
	require.NoError(t, err)

	loaded, err := LoadResults([]byte(`{"engine":"UA","assets":{"html":[{"name":"results"}]}}`), registry, nil)
	require.NoError(t, err)

	_, err = loaded.HTML(context.Background(), "results")
	assert.ErrorContains(t, err, "neither a path nor contents")
}

func TestLoadResults_UnknownEngine(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	_, err = LoadResults([]byte(`{"engine":"ZZ"}`), registry, nil)
	assert.True(t, errors.Is(err, ErrUnknownEngine))
}
