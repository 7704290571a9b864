package services

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"github.com/google/uuid"

	"github.com/nathanpetersonnp/anime-art-tracker/internal/apierr"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/logger"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/repos"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/requestdata"
	"github.com/nathanpetersonnp/anime-art-tracker/internal/types"
)

// SkillScores are the five sub-scores of an assessment, in rubric order.
type SkillScores struct {
	LineQuality      int
	Proportions      int
	Shading          int
	Composition      int
	StyleConsistency int
}

type skillEntry struct {
	name  string
	score int
	topic string
}

// FallbackQueries is returned when the user has no assessed artwork yet.
var FallbackQueries = []string{
	"beginner anime drawing tutorial",
	"anime character basics",
	"how to draw anime faces",
}

type referenceSite struct {
	Name    string
	BaseURL string
	Icon    string
}

var referenceSites = []referenceSite{
	{Name: "Pinterest", BaseURL: "https://www.pinterest.com/search/pins/?q=", Icon: "pinterest"},
	{Name: "DeviantArt", BaseURL: "https://www.deviantart.com/search?q=", Icon: "deviantart"},
	{Name: "YouTube", BaseURL: "https://www.youtube.com/results?search_query=", Icon: "youtube"},
	{Name: "ArtStation", BaseURL: "https://www.artstation.com/search?q=", Icon: "artstation"},
}

// skillEntries builds the five (name, score, topic) entries in definition
// order. The stable sort below breaks score ties by this order.
func skillEntries(scores SkillScores) []skillEntry {
	return []skillEntry{
		{name: "Line Quality", score: scores.LineQuality, topic: "anime lineart tutorial"},
		{name: "Proportions", score: scores.Proportions, topic: "anime anatomy reference"},
		{name: "Shading", score: scores.Shading, topic: "anime shading techniques"},
		{name: "Composition", score: scores.Composition, topic: "anime composition guide"},
		{name: "Style", score: scores.StyleConsistency, topic: "anime art style study"},
	}
}

func levelPrefix(skillLevel string) string {
	switch skillLevel {
	case types.LevelIntermediate, types.LevelAdvanced:
		return skillLevel
	default:
		return types.LevelBeginner
	}
}

// RecommendedSearchQueries returns up to three level-prefixed search queries
// for the caller's three weakest skills. Pure and deterministic.
func RecommendedSearchQueries(skillLevel string, scores SkillScores) []string {
	entries := skillEntries(scores)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].score < entries[j].score })

	prefix := levelPrefix(skillLevel)
	queries := make([]string, 0, 3)
	for _, e := range entries[:3] {
		queries = append(queries, prefix+" "+e.topic)
	}
	return queries
}

// WeakestAreas returns the display names of the three lowest-scoring skills,
// same ordering rules as RecommendedSearchQueries.
func WeakestAreas(scores SkillScores) []string {
	entries := []skillEntry{
		{name: "Line Quality", score: scores.LineQuality},
		{name: "Proportions", score: scores.Proportions},
		{name: "Shading", score: scores.Shading},
		{name: "Composition", score: scores.Composition},
		{name: "Style Consistency", score: scores.StyleConsistency},
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].score < entries[j].score })

	names := make([]string, 0, 3)
	for _, e := range entries[:3] {
		names = append(names, e.name)
	}
	return names
}

type ReferenceLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Icon string `json:"icon"`
}

type ReferenceSuggestion struct {
	Query string          `json:"query"`
	Links []ReferenceLink `json:"links"`
}

// ReferencePayload is the response of the references endpoint. The fallback
// shape (Queries + Message) and the full shape are mutually exclusive.
type ReferencePayload struct {
	Queries      []string              `json:"queries,omitempty"`
	Message      string                `json:"message,omitempty"`
	SkillLevel   string                `json:"skillLevel,omitempty"`
	Suggestions  []ReferenceSuggestion `json:"suggestions,omitempty"`
	WeakestAreas []string              `json:"weakestAreas,omitempty"`
}

type ReferenceService interface {
	GetReferences(ctx context.Context) (*ReferencePayload, error)
}

type referenceService struct {
	log         *logger.Logger
	artworkRepo repos.ArtworkRepo
}

func NewReferenceService(log *logger.Logger, artworkRepo repos.ArtworkRepo) ReferenceService {
	return &referenceService{
		log:         log.With("service", "ReferenceService"),
		artworkRepo: artworkRepo,
	}
}

func (rs *referenceService) GetReferences(ctx context.Context) (*ReferencePayload, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized(fmt.Errorf("unauthorized"))
	}

	latest, err := rs.artworkRepo.LatestAssessedByUserID(ctx, nil, rd.UserID)
	if err != nil {
		return nil, apierr.UpstreamError(fmt.Errorf("failed to get references: %w", err))
	}
	if latest == nil || latest.Assessment == nil {
		return &ReferencePayload{
			Queries: FallbackQueries,
			Message: "Get your artwork evaluated to receive personalized suggestions!",
		}, nil
	}

	a := latest.Assessment
	scores := SkillScores{
		LineQuality:      a.LineQuality,
		Proportions:      a.Proportions,
		Shading:          a.Shading,
		Composition:      a.Composition,
		StyleConsistency: a.StyleConsistency,
	}
	queries := RecommendedSearchQueries(a.OverallLevel, scores)

	suggestions := make([]ReferenceSuggestion, 0, len(queries))
	for _, query := range queries {
		links := make([]ReferenceLink, 0, len(referenceSites))
		for _, site := range referenceSites {
			links = append(links, ReferenceLink{
				Name: site.Name,
				URL:  site.BaseURL + url.QueryEscape(query),
				Icon: site.Icon,
			})
		}
		suggestions = append(suggestions, ReferenceSuggestion{Query: query, Links: links})
	}

	return &ReferencePayload{
		SkillLevel:   a.OverallLevel,
		Suggestions:  suggestions,
		WeakestAreas: WeakestAreas(scores),
	}, nil
}
