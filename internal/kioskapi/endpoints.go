package kioskapi

// Session service endpoints.
const (
	endpointSession       = "/kiosk/api/session"
	endpointSessionStatus = "/kiosk/api/session/%s/status"
)

// Conversation service endpoints.
const (
	endpointConversation = "/kiosk-comm/api/conversation/"
	endpointPlaceOrder   = "/kiosk-comm/api/orders/place"
	endpointHealth       = "/health"
)
