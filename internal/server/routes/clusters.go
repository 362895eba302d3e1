package routes

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/openstar/openstar/cluster"
	"github.com/openstar/openstar/internal/metrics"
)

// Inventory 是诊断接口需要的宿主视图。
type Inventory interface {
	Name() string
	Version() string
	Environment() string
	Records() []cluster.Record
}

// RegisterClusterRoutes 暴露 /-/clusters 诊断接口，供运维查询已加载模块及其来源目录。
func RegisterClusterRoutes(router fiber.Router, inv Inventory) {
	if router == nil || inv == nil {
		return
	}

	router.Get("/-/clusters", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"host":     hostPayload{Name: inv.Name(), Version: inv.Version(), Environment: inv.Environment()},
			"clusters": encodeRecords(inv.Records()),
		})
	})

	router.Get("/-/clusters/:name", func(c fiber.Ctx) error {
		name := strings.TrimSpace(c.Params("name"))
		if name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cluster_name_required"})
		}
		for _, rec := range inv.Records() {
			if strings.EqualFold(rec.Identity.Name, name) {
				detail := clusterDetailPayload{
					clusterPayload: encodeRecord(rec),
					Config:         rec.Instance.Config(),
				}
				return c.JSON(detail)
			}
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "cluster_not_found"})
	})
}

// RegisterMetricsRoute 在 /-/metrics 暴露 Prometheus 指标。
func RegisterMetricsRoute(router fiber.Router) {
	if router == nil {
		return
	}
	router.Get("/-/metrics", metrics.Exposer())
}

type hostPayload struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type clusterPayload struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	StorageDir string `json:"storage_dir"`
	Directory  string `json:"directory,omitempty"`
	Source     string `json:"source,omitempty"`
}

type clusterDetailPayload struct {
	clusterPayload
	Config any `json:"config,omitempty"`
}

func encodeRecords(records []cluster.Record) []clusterPayload {
	result := make([]clusterPayload, 0, len(records))
	for _, rec := range records {
		result = append(result, encodeRecord(rec))
	}
	return result
}

func encodeRecord(rec cluster.Record) clusterPayload {
	payload := clusterPayload{
		Name:       rec.Identity.Name,
		Version:    rec.Identity.Version,
		StorageDir: rec.StorageDir,
	}
	if rec.Context != nil {
		payload.Directory = rec.Context.Name()
		payload.Source = rec.Context.Dir()
	}
	return payload
}
