package core

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoutes(t *testing.T) {
	tests := []struct {
		name    string
		routes  []Route
		wantErr error
	}{
		{
			name:   "default table",
			routes: defaultRouteList(),
		},
		{
			name:    "relative path",
			routes:  []Route{{Name: "livros", Path: "livros"}},
			wantErr: ErrInvalidRoute,
		},
		{
			name:    "off-site redirect",
			routes:  []Route{{Path: "/", Redirect: "//evil.example"}},
			wantErr: ErrInvalidRoute,
		},
		{
			name:    "duplicate path",
			routes:  []Route{{Name: "a", Path: "/a"}, {Name: "b", Path: "/a"}},
			wantErr: ErrInvalidRoute,
		},
		{
			name:    "duplicate name",
			routes:  []Route{{Name: "a", Path: "/a"}, {Name: "a", Path: "/b"}},
			wantErr: ErrInvalidRoute,
		},
		{
			name:    "two catch-all routes",
			routes:  []Route{{Path: CatchAll, Redirect: "/a"}, {Path: CatchAll, Redirect: "/b"}},
			wantErr: ErrInvalidRoute,
		},
		{
			name:    "unknown policy",
			routes:  []Route{{Name: "a", Path: "/a", Policy: Policy(7)}},
			wantErr: ErrUnknownPolicy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			routes, err := NewRoutes(tt.routes...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, routes)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, routes)
		})
	}
}

func TestRoutes_Resolve(t *testing.T) {
	tests := []struct {
		name    string
		rawPath string
		want    Location
	}{
		{
			name:    "root redirects to landing path",
			rawPath: "/",
			want:    Location{Name: "livros", Path: "/livros", FullPath: "/livros", Query: url.Values{}, Policy: RequiresAuth},
		},
		{
			name:    "empty path is root",
			rawPath: "",
			want:    Location{Name: "livros", Path: "/livros", FullPath: "/livros", Query: url.Values{}, Policy: RequiresAuth},
		},
		{
			name:    "unknown path falls through catch-all keeping query",
			rawPath: "/emprestimos?id=4",
			want: Location{
				Name: "livros", Path: "/livros", FullPath: "/livros?id=4",
				Query: url.Values{"id": {"4"}}, Policy: RequiresAuth,
			},
		},
		{
			name:    "guest-only route with redirect query",
			rawPath: "/login?redirect=%2Fautores",
			want: Location{
				Name: "login", Path: "/login", FullPath: "/login?redirect=%2Fautores",
				Query: url.Values{"redirect": {"/autores"}}, Policy: GuestOnly,
			},
		},
		{
			name:    "fragment is part of full path",
			rawPath: "/generos#fim",
			want:    Location{Name: "generos", Path: "/generos", FullPath: "/generos#fim", Query: url.Values{}, Policy: RequiresAuth},
		},
	}

	routes := DefaultRoutes()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := routes.Resolve(tt.rawPath)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRoutes_ResolveErrors(t *testing.T) {
	t.Run("redirect loop", func(t *testing.T) {
		routes, err := NewRoutes(Route{Path: "/a", Redirect: "/b"}, Route{Path: "/b", Redirect: "/a"})
		require.NoError(t, err)

		_, err = routes.Resolve("/a")
		assert.ErrorIs(t, err, ErrRouteRedirectLoop)
	})

	t.Run("no route without catch-all", func(t *testing.T) {
		routes, err := NewRoutes(Route{Name: "livros", Path: "/livros"})
		require.NoError(t, err)

		_, err = routes.Resolve("/autores")
		assert.ErrorIs(t, err, ErrNoRoute)
	})

	t.Run("bad query escape", func(t *testing.T) {
		_, err := DefaultRoutes().Resolve("/livros?q=%zz")
		assert.Error(t, err)
	})
}

func TestRoutes_LookupAndMatch(t *testing.T) {
	routes := DefaultRoutes()

	login, ok := routes.Lookup("login")
	require.True(t, ok)
	assert.Equal(t, "/login", login.Path)
	assert.Equal(t, GuestOnly, login.Policy)

	_, ok = routes.Lookup("emprestimos")
	assert.False(t, ok)

	route, ok := routes.Match("/qualquer")
	require.True(t, ok)
	assert.Equal(t, CatchAll, route.Path)
	assert.Equal(t, DefaultLandingPath, route.Redirect)
}

func TestRoutes_Href(t *testing.T) {
	routes := DefaultRoutes()

	tests := []struct {
		name    string
		target  Target
		want    string
		wantErr error
	}{
		{
			name:   "named route with redirect query",
			target: Target{Name: "login", Query: url.Values{"redirect": {"/autores?page=2"}}},
			want:   "/login?redirect=%2Fautores%3Fpage%3D2",
		},
		{
			name:   "plain path",
			target: Target{Path: "/autores?page=3"},
			want:   "/autores?page=3",
		},
		{
			name:   "path with query plus extra query",
			target: Target{Path: "/autores?page=3", Query: url.Values{"q": {"machado"}}},
			want:   "/autores?page=3&q=machado",
		},
		{
			name:   "empty target is root",
			target: Target{},
			want:   "/",
		},
		{
			name:    "unknown route name",
			target:  Target{Name: "emprestimos"},
			wantErr: ErrUnknownRoute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := routes.Href(tt.target)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsLocalPath(t *testing.T) {
	for p, want := range map[string]bool{
		"/livros":              true,
		"/autores?page=2":      true,
		"":                     false,
		"livros":               false,
		"//evil.example":       false,
		`/\evil.example`:       false,
		"https://evil.example": false,
	} {
		assert.Equal(t, want, isLocalPath(p), p)
	}
}
