// Package messenger implements the Facebook Messenger channel for newsclaw.
//
// It bridges the Graph Send API and Messenger webhooks to newsclaw's
// platform-agnostic message model:
//
//   - Outbound delivery of text, button templates, generic templates and
//     media attachments through POST /{version}/me/messages
//   - Reusable attachment uploads through /me/message_attachments, cached
//     per URL and media type
//   - Webhook verification (hub.challenge handshake) and event parsing for
//     text messages, quick replies and postbacks; signatures are checked by
//     the gateway with the app secret
//   - Typing indicators via sender_action
//
// The module registers itself as "channel.messenger" via init().
//
// No external Messenger library is used; the module talks to the Graph API
// via net/http + encoding/json.
package messenger
