package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateCost_NoKnownResources(t *testing.T) {
	estimate := EstimateCost(`resource "google_compute_firewall" "fw" {}`)
	assert.Equal(t, 0.0, estimate.EstimatedMonthlyUSD)
	assert.Empty(t, estimate.ResourcesDetected)
}

func TestEstimateCost_SumsMatchedTypes(t *testing.T) {
	artifact := `
resource "aws_instance" "web" { instance_type = "t3.micro" }
resource "aws_eks_cluster" "main" {}
resource "aws_s3_bucket" "data" {}
`
	estimate := EstimateCost(artifact)
	assert.Equal(t, 83.0, estimate.EstimatedMonthlyUSD) // 8 + 73 + 2
	assert.Equal(t, []string{"aws_instance", "aws_eks_cluster", "aws_s3_bucket"}, estimate.ResourcesDetected)
}

func TestEstimateCost_CaseInsensitive(t *testing.T) {
	estimate := EstimateCost(`Resource "AWS_S3_BUCKET" "Data" {}`)
	assert.Equal(t, []string{"aws_s3_bucket"}, estimate.ResourcesDetected)
}
