package swagger

//IntegrationType represents x-amazon-apigateway-integration type
type IntegrationType string

//AuthorizerType represents x-amazon-apigateway-authorizer type
type AuthorizerType string

const (
	IntegrationAWSProxy = IntegrationType("aws_proxy")

	AuthorizerToken   = AuthorizerType("token")
	AuthorizerRequest = AuthorizerType("request")
)

const (
	integrationKey      = "x-amazon-apigateway-integration"
	authorizerKey       = "x-amazon-apigateway-authorizer"
	anyMethodKey        = "x-amazon-apigateway-any-method"
	binaryMediaTypesKey = "x-amazon-apigateway-binary-media-types"
)
