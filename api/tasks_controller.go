package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-taskboard/logging"
)

type TasksController struct {
	Logger logging.Logger
	Tasks  Tasks
}

func NewTasksController(svc Tasks, logger logging.Logger) *TasksController {
	if svc == nil {
		panic("Missing Tasks in tasks controller...")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &TasksController{Logger: logger, Tasks: svc}
}

// List handles GET /tasks
func (t *TasksController) List(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	req := new(ListTasksRequest)
	if err := bindQuery(c, req); err != nil {
		return err
	}

	page, err := t.Tasks.List(c.UserContext(), identity.ID, req.Query())
	if err != nil {
		return err
	}

	return OK(c, page)
}

// Create handles POST /tasks
func (t *TasksController) Create(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	payload := new(CreateTaskRequest)
	if err := bind(c, payload); err != nil {
		return err
	}

	task, err := t.Tasks.Create(c.UserContext(), identity.ID, payload.Fields())
	if err != nil {
		return err
	}

	return Created(c, "Task created successfully", fiber.Map{"task": task})
}

// Get handles GET /tasks/:id
func (t *TasksController) Get(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	task, err := t.Tasks.Get(c.UserContext(), c.Params("id"), identity.ID)
	if err != nil {
		return err
	}

	return OK(c, fiber.Map{"task": task})
}

// Update handles PUT /tasks/:id
func (t *TasksController) Update(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	payload := new(UpdateTaskRequest)
	if err := bind(c, payload); err != nil {
		return err
	}

	task, err := t.Tasks.Update(c.UserContext(), c.Params("id"), identity.ID, payload.Patch())
	if err != nil {
		return err
	}

	return Success(c, fiber.StatusOK, "Task updated successfully", fiber.Map{"task": task})
}

// Delete handles DELETE /tasks/:id
func (t *TasksController) Delete(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	if _, err := t.Tasks.Delete(c.UserContext(), c.Params("id"), identity.ID); err != nil {
		return err
	}

	return Message(c, "Task deleted successfully")
}

// Stats handles GET /tasks/stats/summary
func (t *TasksController) Stats(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	stats, err := t.Tasks.Stats(c.UserContext(), identity.ID)
	if err != nil {
		return err
	}

	return OK(c, stats)
}
