package api

import (
	"bytes"
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/pojntfx/pojde-rs/internal/errors"
	"github.com/pojntfx/pojde-rs/internal/instance"
)

// InstanceHandler serves the instance routes.
type InstanceHandler struct {
	manager *instance.Manager
}

// NewInstanceHandler creates a handler backed by m.
func NewInstanceHandler(m *instance.Manager) *InstanceHandler {
	return &InstanceHandler{manager: m}
}

// LifecycleRequest is the body of the start, stop and restart routes.
type LifecycleRequest struct {
	Names []string `json:"names"`
}

// ResultView is one entry of a lifecycle response.
type ResultView struct {
	Name    string `json:"name"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// LifecycleResponse reports the outcome for every requested name.
type LifecycleResponse struct {
	Op      string       `json:"op"`
	Results []ResultView `json:"results"`
}

// statusFor maps an error to its HTTP status by exit code.
func statusFor(err error) int {
	switch errors.GetExitCode(err) {
	case errors.ExitInstanceNotFound:
		return fiber.StatusNotFound
	case errors.ExitNotAnInstance, errors.ExitGeneralError:
		return fiber.StatusBadRequest
	case errors.ExitInstanceNotRunning, errors.ExitPortNotPublished:
		return fiber.StatusConflict
	case errors.ExitRuntimeUnavailable:
		return fiber.StatusServiceUnavailable
	case errors.ExitRuntimeRequestFailed, errors.ExitOperationFailed:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func (h *InstanceHandler) ListInstances(c *fiber.Ctx) error {
	instances, err := h.manager.List(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	if instances == nil {
		instances = []instance.Instance{}
	}
	return c.JSON(instances)
}

func (h *InstanceHandler) GetInstance(c *fiber.Ctx) error {
	inst, err := h.manager.Get(c.UserContext(), c.Params("name"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(inst)
}

func (h *InstanceHandler) GetInstanceLogs(c *fiber.Ctx) error {
	tail := c.Query("tail", "all")
	if tail != "all" {
		if n, err := strconv.Atoi(tail); err != nil || n < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "tail must be a non-negative number or \"all\"",
			})
		}
	}

	stream, err := h.manager.Logs(c.UserContext(), c.Params("name"), instance.LogsOptions{
		Tail:       tail,
		Timestamps: c.QueryBool("timestamps"),
	})
	if err != nil {
		return fail(c, err)
	}
	defer stream.Close()

	// Both streams go into one body in arrival order.
	var buf bytes.Buffer
	if err := instance.Relay(stream, &buf, &buf); err != nil {
		return fail(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Send(buf.Bytes())
}

// batchFunc is one of the Manager lifecycle methods.
type batchFunc func(ctx context.Context, names []string) (*instance.BatchResult, error)

// lifecycle returns a handler running op on the names in the request body.
func (h *InstanceHandler) lifecycle(op instance.Operation, run batchFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req LifecycleRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
		if len(req.Names) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "At least one instance name is required",
			})
		}

		result, err := run(c.UserContext(), req.Names)
		if result == nil {
			return fail(c, err)
		}

		resp := LifecycleResponse{Op: string(op)}
		for _, r := range result.Results {
			view := ResultView{Name: r.Name, Outcome: r.Outcome.String()}
			if r.Err != nil {
				view.Error = r.Err.Error()
			}
			resp.Results = append(resp.Results, view)
		}

		status := fiber.StatusOK
		if err != nil {
			status = fiber.StatusBadGateway
		}
		return c.Status(status).JSON(resp)
	}
}

func (h *InstanceHandler) StartInstances(c *fiber.Ctx) error {
	return h.lifecycle(instance.OpStart, h.manager.Start)(c)
}

func (h *InstanceHandler) StopInstances(c *fiber.Ctx) error {
	return h.lifecycle(instance.OpStop, h.manager.Stop)(c)
}

func (h *InstanceHandler) RestartInstances(c *fiber.Ctx) error {
	return h.lifecycle(instance.OpRestart, h.manager.Restart)(c)
}
