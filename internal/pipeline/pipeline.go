// Package pipeline holds the category aggregation and bulk-reclassification
// operations that keep the complaint collection's labels consistent.
package pipeline

import (
	"context"
	"log/slog"
	"sort"

	"github.com/hazyhaar/grievd/internal/classify"
	"github.com/hazyhaar/grievd/internal/db"
)

// Classifier is the labelling dependency; satisfied by *classify.Client.
type Classifier interface {
	Classify(ctx context.Context, description string) classify.Result
}

// Pipeline runs aggregation and reclassification over the complaint store.
type Pipeline struct {
	db         *db.DB
	classifier Classifier
	batchLimit int
}

func New(database *db.DB, classifier Classifier, batchLimit int) *Pipeline {
	if batchLimit <= 0 {
		batchLimit = 2000
	}
	return &Pipeline{db: database, classifier: classifier, batchLimit: batchLimit}
}

// CategoryGroup is one effective-category partition.
type CategoryGroup struct {
	Category   string          `json:"category"`
	Count      int             `json:"count"`
	Complaints []*db.Complaint `json:"complaints"`
}

// GroupByCategory partitions all complaints by effective category: the
// admin's human correction when present, the model label otherwise,
// "unassigned" when neither is set. Groups come back in ascending category
// order with submitter identity expanded on every member.
func (p *Pipeline) GroupByCategory() ([]CategoryGroup, error) {
	complaints, err := p.db.ListAllComplaints()
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string][]*db.Complaint)
	for _, c := range complaints {
		cat := c.EffectiveCategory()
		byCategory[cat] = append(byCategory[cat], c)
	}

	groups := make([]CategoryGroup, 0, len(byCategory))
	for cat, members := range byCategory {
		groups = append(groups, CategoryGroup{
			Category:   cat,
			Count:      len(members),
			Complaints: members,
		})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Category < groups[j].Category
	})
	return groups, nil
}

// ReclassifyResult reports one bulk run.
type ReclassifyResult struct {
	// Total is the number of complaints selected for the batch.
	Total int `json:"total"`
	// Updated is the number whose labels were actually refreshed.
	Updated int `json:"updated"`
}

// Reclassify re-labels stale complaints: those with a missing or unassigned
// category, or a missing priority. With onlyUnassigned false the whole
// collection is eligible. The batch is capped and classification calls run
// strictly one at a time, bounding the load pushed onto the classifier.
// Per-record failures skip to the next record. Heuristic fallback results
// are never persisted; the record stays eligible for the next run.
func (p *Pipeline) Reclassify(ctx context.Context, onlyUnassigned bool) (*ReclassifyResult, error) {
	batch, err := p.db.ReclassifyBatch(onlyUnassigned, p.batchLimit)
	if err != nil {
		return nil, err
	}

	result := &ReclassifyResult{Total: len(batch)}
	for _, c := range batch {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		res := p.classifier.Classify(ctx, c.Description)
		if !res.FromModel() {
			continue
		}

		err := p.db.UpdateClassification(c.ID, res.Category, res.Priority,
			res.Confidence, res.AnomalyScore, string(res.Source))
		if err != nil {
			slog.Error("reclassify update failed", "complaint", c.ComplaintCode, "error", err)
			continue
		}
		result.Updated++
	}
	return result, nil
}
