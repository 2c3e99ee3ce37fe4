// Package web serves the server-rendered task dashboard: sign-in form,
// filterable task cards with badges, the create form and a task page.
// Sessions live in HttpOnly cookies holding the hosted access and refresh
// tokens.
package web
