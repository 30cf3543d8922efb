package constants

const (
	APP_NAME   = "Startup Organizer"
	PUBLIC_URL = "http://localhost:6835"

	DEFAULT_PORT        = "6835"
	DEFAULT_PAGINATE_BY = 5
	ADMIN_PAGINATE_BY   = 20

	TAG_NAME_MAX_LENGTH       = 31
	TAG_SLUG_MAX_LENGTH       = 31
	STARTUP_NAME_MAX_LENGTH   = 31
	STARTUP_SLUG_MAX_LENGTH   = 31
	NEWSLINK_TITLE_MAX_LENGTH = 63
	NEWSLINK_SLUG_MAX_LENGTH  = 63
	POST_TITLE_MAX_LENGTH     = 63
	POST_SLUG_MAX_LENGTH      = 63
	PROFILE_SLUG_MAX_LENGTH   = 30
	PROFILE_NAME_MAX_LENGTH   = 255
	EMAIL_MAX_LENGTH          = 254
	URL_MAX_LENGTH            = 255
	PASSWORD_MIN_LENGTH       = 8

	// form field carrying the CSRF token
	CSRF_FIELD_NAME = "csrf_token"

	// date layout used by forms, fixtures and URLs
	DATE_LAYOUT = "2006-01-02"
)
