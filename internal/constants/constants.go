package constants

import "os"

const defaultAPIName = "car-inventory-api"

// CarDeletedMessage confirms a successful delete on every transport.
const CarDeletedMessage = "Car deleted successfully"

// APIName returns the bracketed log prefix for this service.
// API_NAME overrides the default so several deployments can share a log sink.
func APIName() string {
	name := os.Getenv("API_NAME")
	if name == "" {
		name = defaultAPIName
	}
	return "[" + name + "]"
}
