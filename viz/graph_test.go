package viz

import (
	"context"
	"testing"

	"github.com/harperreed/pursuit/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePipelineGraph(t *testing.T) {
	open := vm("11111111-aaaa", "Acme", models.PhaseQualify)
	archived := vm("22222222-bbbb", "Hidden Co", models.PhaseClose)
	archived.IsArchived = true

	dot, err := NewGraphGenerator().GeneratePipelineGraph(context.Background(), []*models.EngagementViewModel{open, archived})
	require.NoError(t, err)
	assert.Contains(t, dot, "phase_DISCOVER")
	assert.Contains(t, dot, "eng_11111111")
	assert.Contains(t, dot, "Acme")
	assert.NotContains(t, dot, "Hidden Co")
}

func TestGenerateEngagementGraph(t *testing.T) {
	e := vm("abc", "Acme", models.PhaseDesign)
	e.Phases = map[models.PhaseType]models.Phase{
		models.PhaseDesign: {PhaseType: models.PhaseDesign, Status: models.PhaseInProgress},
	}
	e.OwnerNames = []string{"Alice"}

	dot, err := NewGraphGenerator().GenerateEngagementGraph(context.Background(), e)
	require.NoError(t, err)
	assert.Contains(t, dot, "IN_PROGRESS")
	assert.Contains(t, dot, "Alice")
}
