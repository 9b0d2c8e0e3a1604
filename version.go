package sdk

// Version is the published SDK version.
// 0.3.0: Add Go/CallAsync, Session and token stores.
// 0.2.0: Breaking - unresolved path placeholders fail before dispatch instead of
// being sent literally.
const Version = "0.3.0"
