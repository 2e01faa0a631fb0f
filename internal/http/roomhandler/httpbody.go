package roomhandler

type HealthResponse struct {
	Status    string `json:"status"`
	Rooms     int    `json:"rooms"`
	Listeners int    `json:"listeners"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
