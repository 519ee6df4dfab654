/*
Package attention implements the shared attention budget for UI elements.

# Overview

Interactive elements compete for three scarce pools: screen space, audio
time and cognitive load. The Store owns the current Context and the set of
registered elements. Every mutation runs one allocation pass:

	mutate store → Allocate(ctx, elements) → write outcomes → notify listeners

Allocate scores each element once, sorts by score (ties keep registration
order) and admits elements greedily while every pool has room and the score
is above AdmissionThreshold. Everything else is deferred.

# Elements

Anything implementing Scoreable can be registered. Widget is the stock
implementation driven by declarative attributes (urgency, weight, can-defer,
needs). Elements that implement AllocationReceiver get their outcome written
back after each pass.

# Usage

	store := attention.NewStore(logger, attention.DefaultCapacity())
	unsubscribe := store.OnChange(func(c attention.Context) {
		render(c)
	})
	defer unsubscribe()

	toast := attention.NewWidget(attention.KindFeedback, attention.Attributes{
		Urgency: attention.UrgencyHigh,
	})
	store.Register(toast)
	store.SetModality(attention.ModalityVoiceScreen)

	if toast.Allocated() {
		// show it
	}

# Failures

A misbehaving element (error, panic, invalid needs) is deferred for the pass
and recorded as a CapabilityError on its Decision. Listener panics are
recovered. Nothing a caller supplies aborts a pass.
*/
package attention
