package web

// DefaultTitle is used when a page leaves Title empty.
const DefaultTitle = "Social Media App"

// User is the signed-in account as the navbar sees it.
type User struct {
	Username string
	IsAdmin  bool
}

// Page is the rendering context of every document: shared chrome
// (Title, User) plus page-specific Content for the page's content block.
// User is nil for anonymous requests.
type Page[T any] struct {
	Title   string
	User    *User
	Content T
}
