// Package seed populates the database with development and demo data.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"chirp/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers int
	NumPosts int
	Clean    bool
	// SkipBcrypt stores a plaintext marker instead of hashing, for fast
	// local reseeding. Seeded accounts cannot log in when set.
	SkipBcrypt bool
}

var tagPool = []string{
	"golang", "music", "movies", "gaming", "fitness", "food", "travel",
	"books", "art", "science", "sports", "photography", "coffee", "cats",
	"dogs", "history", "space", "diy", "news", "memes",
}

var countryPool = []string{"US", "GB", "SE", "DE", "JP", "BR", "CA", "FR", "AU", "NL"}

// Seed populates the database with test data.
func Seed(db *gorm.DB, opts Options) error {
	gofakeit.Seed(time.Now().UnixNano())
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	log.Printf("🌱 Seeding %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.Clean {
		if err := clearData(db); err != nil {
			return fmt.Errorf("failed to clear existing data: %w", err)
		}
	}

	users, err := createUsers(db, opts)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d users created", len(users))

	if err := createFollowMesh(db, r, users); err != nil {
		return fmt.Errorf("failed to create follow graph: %w", err)
	}

	posts, err := createPosts(db, r, users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("✓ %d posts created", len(posts))

	if err := createReplies(db, r, users, posts); err != nil {
		return fmt.Errorf("failed to create replies: %w", err)
	}
	if err := createLikes(db, r, users, posts); err != nil {
		return fmt.Errorf("failed to create likes: %w", err)
	}

	log.Println("✨ Seeding complete. All test users have the password: password123")
	return nil
}

func clearData(db *gorm.DB) error {
	// Children before parents so foreign keys never block the wipe.
	tables := []string{"likes", "post_images", "post_tags", "posts", "tags",
		"profile_followers", "profiles", "users"}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}

func createUsers(db *gorm.DB, opts Options) ([]*models.User, error) {
	password := "password123"
	hashed := password
	if !opts.SkipBcrypt {
		raw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hashed = string(raw)
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		username := fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(10, 999))
		user := &models.User{
			Username: username,
			Email:    fmt.Sprintf("%s@example.com", username),
			Password: hashed,
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(user).Error; err != nil {
				return err
			}
			profile := &models.Profile{
				UserID:  user.ID,
				Bio:     clampRunes(gofakeit.Sentence(8), 160),
				Country: countryPool[gofakeit.Number(0, len(countryPool)-1)],
			}
			return tx.Create(profile).Error
		})
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// createFollowMesh gives every profile a handful of random follows so home
// feeds have content.
func createFollowMesh(db *gorm.DB, r *rand.Rand, users []*models.User) error {
	var profiles []models.Profile
	if err := db.Find(&profiles).Error; err != nil {
		return err
	}
	if len(profiles) < 2 {
		return nil
	}

	for _, follower := range profiles {
		seen := map[uint]bool{follower.ID: true}
		edges := r.Intn(len(profiles))
		if edges > 8 {
			edges = 8
		}
		for i := 0; i < edges; i++ {
			target := profiles[r.Intn(len(profiles))]
			if seen[target.ID] {
				continue
			}
			seen[target.ID] = true
			follow := models.Follow{ProfileID: target.ID, FollowerID: follower.ID}
			if err := db.Create(&follow).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func createPosts(db *gorm.DB, r *rand.Rand, users []*models.User, count int) ([]*models.Post, error) {
	tags, err := ensureTags(db)
	if err != nil {
		return nil, err
	}

	posts := make([]*models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[r.Intn(len(users))]
		post := &models.Post{
			UserID:    &author.ID,
			Text:      clampRunes(gofakeit.Sentence(r.Intn(20)+3), 300),
			Published: true,
			CreatedAt: spreadBack(r, 30),
		}
		// Roughly one in twenty stays an unpublished draft.
		if r.Intn(20) == 0 {
			post.Published = false
		}

		for _, tag := range pickTags(r, tags) {
			post.Tags = append(post.Tags, tag)
		}

		if err := db.Create(post).Error; err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func createReplies(db *gorm.DB, r *rand.Rand, users []*models.User, posts []*models.Post) error {
	count := 0
	for _, parent := range posts {
		if !parent.Published || r.Intn(3) != 0 {
			continue
		}
		replies := r.Intn(4)
		for i := 0; i < replies; i++ {
			author := users[r.Intn(len(users))]
			reply := &models.Post{
				UserID:    &author.ID,
				ParentID:  &parent.ID,
				Text:      clampRunes(gofakeit.Sentence(r.Intn(10)+2), 300),
				Published: true,
				CreatedAt: parent.CreatedAt.Add(time.Duration(r.Intn(600)+1) * time.Minute),
			}
			if err := db.Create(reply).Error; err != nil {
				return err
			}
			count++
		}
	}
	log.Printf("✓ %d replies created", count)
	return nil
}

func createLikes(db *gorm.DB, r *rand.Rand, users []*models.User, posts []*models.Post) error {
	count := 0
	for _, post := range posts {
		if !post.Published {
			continue
		}
		seen := map[uint]bool{}
		likes := r.Intn(len(users) + 1)
		if likes > 12 {
			likes = 12
		}
		for i := 0; i < likes; i++ {
			user := users[r.Intn(len(users))]
			if seen[user.ID] {
				continue
			}
			seen[user.ID] = true
			like := models.Like{UserID: user.ID, PostID: post.ID}
			if err := db.Create(&like).Error; err != nil {
				return err
			}
			count++
		}
	}
	log.Printf("✓ %d likes created", count)
	return nil
}

func ensureTags(db *gorm.DB) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(tagPool))
	for _, name := range tagPool {
		tag := models.Tag{Name: name}
		if err := db.Where(models.Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func pickTags(r *rand.Rand, tags []models.Tag) []models.Tag {
	n := r.Intn(4)
	picked := make([]models.Tag, 0, n)
	seen := map[uint]bool{}
	for i := 0; i < n; i++ {
		tag := tags[r.Intn(len(tags))]
		if seen[tag.ID] {
			continue
		}
		seen[tag.ID] = true
		picked = append(picked, tag)
	}
	return picked
}

// spreadBack returns a timestamp up to maxDays in the past so timelines look
// lived-in rather than created all at once.
func spreadBack(r *rand.Rand, maxDays int) time.Time {
	back := time.Duration(r.Intn(maxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}

func clampRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
