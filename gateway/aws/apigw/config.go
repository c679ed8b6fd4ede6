package apigw

import (
	"github.com/aws/aws-sdk-go/aws"
)

const (
	defaultStage     = "Prod"
	defaultHTTPStage = "$default"
	defaultAccountID = "123456789012"
)

type Config struct {
	Endpoint         string
	Region           string
	Stage            string
	AccountID        string
	BinaryMediaTypes []string
	AWS              *aws.Config
}

func (c *Config) Init() {
	if c.Region == "" {
		c.Region = "us-west-2"
	}
	if c.AccountID == "" {
		c.AccountID = defaultAccountID
	}
	if c.AWS == nil {
		c.AWS = &aws.Config{Region: aws.String(c.Region)}
		if c.Endpoint != "" {
			c.AWS.Endpoint = aws.String(c.Endpoint)
		}
	}
}
