// Package handlers wires the HTTP surface: auth, cards, catalog, profile,
// recommendations, and chat.
package handlers

import (
	"cardsavvy/api/chat"
	"cardsavvy/api/config"
	"cardsavvy/api/recommend"
	"cardsavvy/api/storage"
	"cardsavvy/api/worker"
)

// API groups the handler dependencies.
type API struct {
	store     storage.Storage
	pipeline  *recommend.Pipeline
	assistant *chat.Assistant
	pool      *worker.Pool
	cfg       *config.Config
}

// New builds the handler set.
func New(store storage.Storage, pipeline *recommend.Pipeline, assistant *chat.Assistant, pool *worker.Pool, cfg *config.Config) *API {
	return &API{
		store:     store,
		pipeline:  pipeline,
		assistant: assistant,
		pool:      pool,
		cfg:       cfg,
	}
}
