package storage

import (
	"context"
	"fmt"
	"time"

	"blogadmin/models"
)

// Seed populates an empty store with demo posts. A store that already has
// posts is left alone so restarts don't duplicate data.
func Seed(ctx context.Context, store Storage) error {
	counts, err := store.Counts(ctx)
	if err != nil {
		return fmt.Errorf("error checking existing data: %w", err)
	}
	if counts.Total > 0 {
		return nil
	}

	now := time.Now().UTC()
	ts := func(daysAgo int) *time.Time {
		t := now.AddDate(0, 0, -daysAgo)
		return &t
	}

	posts := []models.Post{
		{Title: "Welcome to the blog", Content: "First post on the new platform.", Author: "Ana Souza", Status: models.StatusPublished, PublishedAt: ts(30)},
		{Title: "Product launch recap", Content: "Everything that happened during launch week.", Author: "Bruno Lima", Status: models.StatusPublished, PublishedAt: ts(14)},
		{Title: "Roadmap draft", Content: "Notes for the next quarter, still unreviewed.", Author: "Carla Mendes", Status: models.StatusDraft},
		{Title: "Hiring update", Content: "Two new engineers join next month.", Author: "Ana Souza", Status: models.StatusPublished, PublishedAt: ts(7)},
		{Title: "Old announcement", Content: "Kept for the record only.", Author: "Bruno Lima", Status: models.StatusArchived, PublishedAt: ts(120)},
	}

	for i := range posts {
		posts[i].CreatedAt = now
		posts[i].UpdatedAt = now
		if err := store.Create(ctx, &posts[i]); err != nil {
			return fmt.Errorf("error seeding posts: %w", err)
		}
	}
	return nil
}
