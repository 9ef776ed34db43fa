package main

import (
	"context"
	"fmt"
	"time"

	"github.com/blogicum/blogicum/models"
	"github.com/blogicum/blogicum/storage"
	"github.com/blogicum/blogicum/utils"
)

// seedDemo creates a couple of users, categories, locations and posts so the
// memory backend is browsable right away. Both users have the password "blogicum-demo".
func seedDemo(ctx context.Context, store storage.Storage) error {
	hash, err := utils.HashPassword("blogicum-demo")
	if err != nil {
		return err
	}
	alice := &models.User{Username: "alice", FirstName: "Alice", LastName: "Walker", PasswordHash: hash}
	bob := &models.User{Username: "bob", FirstName: "Bob", PasswordHash: hash}
	for _, u := range []*models.User{alice, bob} {
		if err := store.CreateUser(ctx, u); err != nil {
			return err
		}
	}

	travel := &models.Category{Title: "Travel", Slug: "travel", Description: "Trips, roads and places.", IsPublished: true}
	food := &models.Category{Title: "Food", Slug: "food", Description: "What we ate on the way.", IsPublished: true}
	drafts := &models.Category{Title: "Drafts", Slug: "drafts", Description: "Hidden category.", IsPublished: false}
	for _, c := range []*models.Category{travel, food, drafts} {
		if err := store.CreateCategory(ctx, c); err != nil {
			return err
		}
	}
	island := &models.Location{Name: "Desert island", IsPublished: true}
	city := &models.Location{Name: "Big city", IsPublished: true}
	for _, l := range []*models.Location{island, city} {
		if err := store.CreateLocation(ctx, l); err != nil {
			return err
		}
	}

	now := time.Now()
	for i := 1; i <= 14; i++ {
		author, cat, loc := alice, travel, island
		if i%2 == 0 {
			author, cat, loc = bob, food, city
		}
		p := &models.Post{
			Title:       fmt.Sprintf("Day %d", i),
			Text:        fmt.Sprintf("Notes from day %d of the journey.\nMore tomorrow.", i),
			PubDate:     now.Add(-time.Duration(15-i) * 24 * time.Hour),
			IsPublished: true,
			AuthorID:    author.ID,
			CategoryID:  &cat.ID,
			LocationID:  &loc.ID,
		}
		if err := store.CreatePost(ctx, p); err != nil {
			return err
		}
		if i%3 == 0 {
			c := &models.Comment{Text: "Great story!", PostID: p.ID, AuthorID: bob.ID, CreatedAt: now}
			if err := store.CreateComment(ctx, c); err != nil {
				return err
			}
		}
	}
	scheduled := &models.Post{
		Title: "Coming soon", Text: "Scheduled for next week.", PubDate: now.Add(7 * 24 * time.Hour),
		IsPublished: true, AuthorID: alice.ID, CategoryID: &travel.ID,
	}
	return store.CreatePost(ctx, scheduled)
}
