package application

// OpenSessionCommand represents the command to open a picking session for an order
type OpenSessionCommand struct {
	OrderNumber string
}

// ScanCommand represents the command to reconcile one scanner input
type ScanCommand struct {
	SessionID string
	Barcode   string
}

// ConfirmSessionCommand represents the command to commit a completed session
type ConfirmSessionCommand struct {
	SessionID string
}

// CloseSessionCommand represents the command to discard a session
type CloseSessionCommand struct {
	SessionID string
}

// GetSessionQuery represents the query to get a session by ID
type GetSessionQuery struct {
	SessionID string
}

// GetOrderQuery represents the query to get an order by order number
type GetOrderQuery struct {
	OrderNumber string
}

// ListOrdersQuery represents the query to list orders with optional filters
type ListOrdersQuery struct {
	Status   string
	Platform string
	Search   string
	Limit    int
}
