package web

import (
	"bytes"
	"html/template"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)
	return r
}

func renderFragment(t *testing.T, r *Renderer, title string, u *User, frag template.HTML) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.RenderFragment(&buf, title, u, frag))
	return buf.String()
}

func TestLayout_Anonymous(t *testing.T) {
	out := renderFragment(t, newTestRenderer(t), "", nil, "<p>hi</p>")

	assert.Contains(t, out, `<a href="/login">Login</a>`)
	assert.Contains(t, out, `<a href="/register">Register</a>`)
	for _, absent := range []string{"Dashboard", "My Profile", "Admin", "Logout", "Hello, "} {
		assert.NotContains(t, out, absent)
	}
}

func TestLayout_Member(t *testing.T) {
	out := renderFragment(t, newTestRenderer(t), "", &User{Username: "alice"}, "<p>hi</p>")

	assert.Contains(t, out, "Hello, alice!")
	assert.Contains(t, out, `<a href="/logout">Logout</a>`)
	assert.Contains(t, out, `<a href="/dashboard">Dashboard</a>`)
	assert.Contains(t, out, `<a href="/profile/alice">My Profile</a>`)
	assert.NotContains(t, out, "Admin")
	assert.NotContains(t, out, `href="/admin"`)
	assert.NotContains(t, out, `href="/login"`)
	assert.NotContains(t, out, `href="/register"`)
}

func TestLayout_Admin(t *testing.T) {
	out := renderFragment(t, newTestRenderer(t), "", &User{Username: "bob", IsAdmin: true}, "<p>hi</p>")

	assert.Contains(t, out, "Hello, bob!")
	assert.Contains(t, out, `<a href="/admin">Admin</a>`)
	assert.Contains(t, out, `<a href="/profile/bob">My Profile</a>`)
	assert.Contains(t, out, `<a href="/logout">Logout</a>`)
}

func TestLayout_ContentOnce(t *testing.T) {
	frag := template.HTML(`<div id="unique-block"><em>page body</em> &amp; more</div>`)
	out := renderFragment(t, newTestRenderer(t), "", &User{Username: "carol"}, frag)

	assert.Equal(t, 1, strings.Count(out, string(frag)))
	mainStart := strings.Index(out, "<main")
	mainEnd := strings.Index(out, "</main>")
	require.True(t, mainStart >= 0 && mainEnd > mainStart)
	assert.Contains(t, out[mainStart:mainEnd], string(frag))
}

func TestLayout_Title(t *testing.T) {
	r := newTestRenderer(t)

	assert.Contains(t, renderFragment(t, r, "", nil, ""), "<title>"+DefaultTitle+"</title>")
	assert.Contains(t, renderFragment(t, r, "", nil, ""), "<title>Social Media App</title>")
	assert.Contains(t, renderFragment(t, r, "Latest news", nil, ""), "<title>Latest news</title>")
	assert.Contains(t, renderFragment(t, r, "Latest news", nil, ""), `class="brand" href="/">Social Media App</a>`)
	assert.Contains(t, renderFragment(t, r, "Tom & Jerry", nil, ""), "<title>Tom &amp; Jerry</title>")
}

func TestLayout_Idempotent(t *testing.T) {
	r := newTestRenderer(t)
	u := &User{Username: "bob", IsAdmin: true}

	first := renderFragment(t, r, "Same", u, "<p>same</p>")
	second := renderFragment(t, r, "Same", u, "<p>same</p>")
	assert.Equal(t, first, second)
}

func TestLayout_EscapesUsername(t *testing.T) {
	out := renderFragment(t, newTestRenderer(t), "", &User{Username: `<b>x</b>`}, "")
	assert.NotContains(t, out, "<b>x</b>")
	assert.Contains(t, out, "Hello, &lt;b&gt;x&lt;/b&gt;!")
}

func TestLayout_DoesNotMutateContext(t *testing.T) {
	r := newTestRenderer(t)
	page := Page[template.HTML]{User: &User{Username: "alice"}, Content: "<p>x</p>"}
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "fragment", page))

	assert.Equal(t, "", page.Title)
	assert.Equal(t, &User{Username: "alice"}, page.User)
}

func TestRender_UnknownPage(t *testing.T) {
	var buf bytes.Buffer
	err := newTestRenderer(t).Render(&buf, "nope", Page[any]{})
	assert.Error(t, err)
}

type testPost struct {
	ID        int64
	Author    string
	Content   string
	ImagePath string
	CreatedAt time.Time
}

func TestRender_Pages(t *testing.T) {
	r := newTestRenderer(t)
	when := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	posts := []testPost{
		{ID: 2, Author: "alice", Content: "with <script>", ImagePath: "uploads/a.png", CreatedAt: when},
		{ID: 1, Author: "alice", Content: "plain", CreatedAt: when},
	}
	user := &User{Username: "alice", IsAdmin: true}

	t.Run("index", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, r.Render(&buf, "index", Page[struct{ Posts []testPost }]{Content: struct{ Posts []testPost }{posts}}))
		out := buf.String()
		assert.Contains(t, out, "with &lt;script&gt;")
		assert.Contains(t, out, `src="/static/uploads/a.png"`)
		assert.Contains(t, out, "Mar 1, 2024 12:30")
	})

	t.Run("index empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, r.Render(&buf, "index", Page[struct{ Posts []testPost }]{}))
		assert.Contains(t, buf.String(), "No posts yet.")
	})

	t.Run("login error", func(t *testing.T) {
		type content struct{ Username, Error string }
		var buf bytes.Buffer
		require.NoError(t, r.Render(&buf, "login", Page[content]{Content: content{Username: "al", Error: "Invalid username or password"}}))
		assert.Contains(t, buf.String(), "Invalid username or password")
		assert.Contains(t, buf.String(), `value="al"`)
	})

	t.Run("admin", func(t *testing.T) {
		type row struct {
			ID        int64
			Username  string
			Email     string
			IsAdmin   bool
			CreatedAt time.Time
		}
		type content struct {
			Users []row
			Posts []testPost
		}
		var buf bytes.Buffer
		require.NoError(t, r.Render(&buf, "admin", Page[content]{
			Title: "Admin", User: user,
			Content: content{Users: []row{{ID: 1, Username: "alice", Email: "a@example.com", IsAdmin: true, CreatedAt: when}}, Posts: posts},
		}))
		out := buf.String()
		assert.Contains(t, out, "Users (1)")
		assert.Contains(t, out, "Posts (2)")
		assert.Contains(t, out, "a@example.com")
	})

	t.Run("error", func(t *testing.T) {
		type content struct {
			Status     int
			StatusText string
			Message    string
		}
		var buf bytes.Buffer
		require.NoError(t, r.Render(&buf, "error", Page[content]{Content: content{404, "Not Found", "User not found"}}))
		assert.Contains(t, buf.String(), "404 Not Found")
		assert.Contains(t, buf.String(), "User not found")
	})
}
