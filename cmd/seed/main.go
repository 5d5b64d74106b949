// Command seed populates a running Feedline server with demo data.
package main

import (
	"flag"
	"log"
	"math/rand"

	"github.com/feedline-io/feedline/internal/client"
)

var users = []struct {
	username string
	first    string
	last     string
}{
	{"ada", "Ada", "Lovelace"},
	{"grace", "Grace", "Hopper"},
	{"linus", "Linus", "Torvalds"},
	{"margaret", "Margaret", "Hamilton"},
	{"dennis", "Dennis", "Ritchie"},
}

var posts = []struct {
	title string
	text  string
}{
	{"Hello Feedline", "First post on the platform. Say hi below!"},
	{"What are you reading this week?", "Looking for book recommendations, preferably something technical."},
	{"Show Feedline: my weekend project", "Built a tiny static site generator in an afternoon. Happy to share the code."},
	{"Hot take: pagination should always be explicit", "Defaults hide bugs. Make clients say how much they want."},
	{"Best coffee for late-night debugging?", "Asking for a friend who has a deadline tomorrow."},
	{"The case for boring technology", "New frameworks are fun, but uptime is more fun."},
	{"How do you name things?", "Still the hardest problem. Share your conventions."},
	{"TIL about SQLite partial indexes", "They cut one of our query times in half."},
	{"Weekly wins thread", "Post one thing that went well for you this week."},
	{"Remote work setups, 2026 edition", "Desks, chairs, monitors. What changed for you this year?"},
}

var comments = []string{
	"Great post, thanks for sharing.",
	"I disagree, but this is well argued.",
	"Has anyone measured this? Numbers would help.",
	"This matches my experience exactly.",
	"Bookmarking this for later.",
	"I built something similar last year. Happy to compare notes.",
	"Underrated point about defaults.",
	"Can you share more details?",
	"This is why I keep coming back here.",
	"Liked and shared with my team.",
	"Tried it this morning, works great.",
	"Solid write-up. Looking forward to part two.",
	"This changed how I think about the problem.",
	"Would love a follow-up post.",
	"Clean approach. Nice work.",
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Feedline server URL")
	flag.Parse()

	log.Printf("Seeding %s...", *baseURL)

	helper := client.NewTestHelper(*baseURL)

	var clients []*client.Client
	for _, u := range users {
		c, err := helper.CreateAuthenticatedClient(u.username)
		if err != nil {
			log.Fatalf("register %s: %v", u.username, err)
		}
		log.Printf("✓ Registered user: %s", u.username)
		clients = append(clients, c)
	}

	var postIDs []string
	for _, p := range posts {
		idx := rand.Intn(len(clients))
		post, err := clients[idx].CreatePost(p.title, p.text)
		if err != nil {
			log.Printf("✗ Failed to create post: %v", err)
			continue
		}
		postIDs = append(postIDs, post.ID)
		log.Printf("✓ Posted %q (by %s)", p.title, users[idx].username)
	}

	var commentIDs []string
	for _, postID := range postIDs {
		n := 1 + rand.Intn(3)
		for i := 0; i < n; i++ {
			idx := rand.Intn(len(clients))
			text := comments[rand.Intn(len(comments))]
			comment, err := clients[idx].CreateComment(postID, text)
			if err != nil {
				log.Printf("✗ Failed to comment: %v", err)
				continue
			}
			commentIDs = append(commentIDs, comment.ID)
		}
	}
	log.Printf("✓ Created %d comments", len(commentIDs))

	likes := 0
	for _, postID := range postIDs {
		for _, c := range clients {
			if rand.Intn(2) == 0 {
				continue
			}
			if _, err := c.LikePost(postID); err != nil {
				log.Printf("✗ Failed to like post: %v", err)
				continue
			}
			likes++
		}
	}
	for _, commentID := range commentIDs {
		idx := rand.Intn(len(clients))
		if _, err := clients[idx].LikeComment(commentID); err != nil {
			log.Printf("✗ Failed to like comment: %v", err)
			continue
		}
		likes++
	}
	log.Printf("✓ Added %d likes", likes)

	log.Println("Done. Browse with: feedline read")
}
