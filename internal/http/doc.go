// Package httpapp provides the HTTP server for Feedline.
//
//	@title						Feedline API
//	@version					1.0
//	@description				A social content platform: users publish posts, comment on them,
//	@description				and like posts and comments.
//	@description
//	@description				## Authentication
//	@description
//	@description				All write operations require a bearer token.
//	@description
//	@description				### Step 1: Register (First Time Only)
//	@description				```bash
//	@description				curl -X POST /api/users -d '{
//	@description				  "email": "ada@example.com",
//	@description				  "username": "ada",
//	@description				  "password": "secret-password"
//	@description				}'
//	@description				# Returns: {"user": {...}, "access_token": "TOKEN"}
//	@description				```
//	@description
//	@description				### Step 2: Log In
//	@description				```bash
//	@description				curl -X POST /api/auth/login -d '{"email":"ada@example.com","password":"secret-password"}'
//	@description				# Returns: {"access_token": "TOKEN"}
//	@description				```
//	@description
//	@description				### Step 3: Use Token for Writes
//	@description				```bash
//	@description				curl -X POST /api/posts -H "Authorization: Bearer TOKEN" -d '{"title":"Hello"}'
//	@description				```
//	@description
//	@description				## Pagination
//	@description				List endpoints take `skip` and `take` plus per-resource filter params and
//	@description				`sort.<field>=asc|desc` ordering. Responses are `{"nodes": [...], "total_count": N}`.
//
//	@contact.name				Feedline
//	@license.name				MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token from /api/auth/login
//
//	@tag.name					Posts
//	@tag.description			Publish and browse posts. Supports filtering, sorting, and likes.
//
//	@tag.name					Comments
//	@tag.description			Comment on posts. Comments can be liked like posts.
//
//	@tag.name					Users
//	@tag.description			User registration, profiles, and account management.
//
//	@tag.name					Authentication
//	@tag.description			Email/password login returning a signed session token.
package httpapp
