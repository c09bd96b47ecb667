// Package azuretts is a streaming client for the Azure Cognitive Services
// speech-synthesis websocket protocol, also spoken by the Edge read-aloud
// endpoint.
//
// # Protocol
//
// One secure websocket connection is opened per speak request. The client
// sends two text messages: a speech.config message selecting the output
// container and the metadata event categories, then an ssml message carrying
// the input markup. The service streams back binary messages (MP3 container
// fragments behind a small header block) and text messages (audio.metadata
// with boundary events, and turn.end when the session is over).
//
// # Usage
//
//	client, err := azuretts.NewClient(
//		azuretts.WithRegion("westus"),
//		azuretts.WithSubscriptionKey(key),
//		azuretts.WithSink(speaker),
//		azuretts.WithCallbacks(azuretts.Callbacks{
//			WordBoundary: func(offset uint64, pos, length int) { ... },
//		}),
//	)
//	if err != nil { ... }
//	defer client.Close()
//
//	handle := client.SpeakAsync(ssml)
//	if err := handle.Wait(ctx); err != nil { ... }
//
// Audio is decoded on a dedicated worker and written to the sink; boundary
// events are re-anchored to byte offsets in the submitted markup and invoked
// from the connection's reader goroutine. A client runs one session at a
// time; Stop cancels the current one and discards its undecoded audio.
package azuretts
