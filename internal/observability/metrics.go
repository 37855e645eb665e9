package observability

const (
	MPlacementRequests       MetricKey = "placement_requests_total"
	MPlacementDuration       MetricKey = "placement_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
)
