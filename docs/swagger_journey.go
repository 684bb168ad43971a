package docs

// @title           fieldtrack Journey API
// @version         1.0
// @description     Journey tracking for field engineers and inspectors: journey lifecycle, telemetry samples, admin reports and the live journey feed.

// @host      localhost:3000
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token. The websocket feed also accepts ?access_token=.
