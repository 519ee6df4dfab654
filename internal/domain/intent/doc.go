// Package intent routes typed requests into the attention store.
//
// Elements and surfaces never call the store directly from event handlers.
// They emit intents, and a single Coordinator goroutine applies them in
// emission order, so every store mutation is serialized and observed by
// listeners in the same order it was requested.
//
// Intent Kinds:
//   - register: add Element to the registry
//   - unregister: remove Element or ElementID
//   - update_context: merge Update into the context
//   - set_modality: change only the modality
//   - refresh: rerun the allocation pass
//
// Example Usage:
//
//	coord := intent.NewCoordinator(store, logger, 64)
//	go coord.Run(ctx)
//	err := coord.Submit(ctx, intent.Register(widget))
package intent
