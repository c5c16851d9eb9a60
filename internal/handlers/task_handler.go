package handlers

import (
	"html"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"taskdesk/internal/authz"
	"taskdesk/internal/models"
	"taskdesk/internal/pdf"
	"taskdesk/internal/repositories"
	"taskdesk/internal/services"
)

type TaskHandler struct {
	service services.TaskService
	files   *services.FileService
	pdfGen  pdf.Generator

	// assignee notifications
	email services.EmailService
	tg    *services.TelegramService
	users repositories.UserRepository
}

func NewTaskHandler(
	service services.TaskService,
	files *services.FileService,
	pdfGen pdf.Generator,
	email services.EmailService,
	tg *services.TelegramService,
	users repositories.UserRepository,
) *TaskHandler {
	return &TaskHandler{service: service, files: files, pdfGen: pdfGen, email: email, tg: tg, users: users}
}

// POST /tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req struct {
		Title         string              `json:"title" binding:"required"`
		Description   string              `json:"description"`
		Tags          []string            `json:"tags"`
		AssignedTo    *int64              `json:"assigned_to"`
		DueDate       string              `json:"due_date" binding:"required"` // RFC3339
		Priority      models.TaskPriority `json:"priority"`                    // low|medium|high|critical
		ReferenceLink string              `json:"reference_link"`
		Attachment    *models.FileRef     `json:"attachment"`
	}

	userID, roleID := getUserAndRole(c)
	log.Printf("[task][create] call by userID=%d role=%d", userID, roleID)

	if !authz.IsAdmin(roleID) {
		log.Printf("[task][create][deny] role=%d", roleID)
		c.JSON(http.StatusForbidden, gin.H{"error": "only admin can create tasks"})
		return
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][create][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	due, err := time.Parse(time.RFC3339, req.DueDate)
	if err != nil {
		log.Printf("[task][create][err] invalid due_date=%q: %v", req.DueDate, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date (RFC3339)"})
		return
	}

	task := &models.TaskRecord{
		Title:         req.Title,
		Description:   req.Description,
		Tags:          req.Tags,
		AssignedTo:    req.AssignedTo,
		DueDate:       due,
		Priority:      req.Priority,
		ReferenceLink: req.ReferenceLink,
		Attachment:    req.Attachment,
		CreatedBy:     userID,
	}

	created, err := h.service.Create(c.Request.Context(), task)
	if err != nil {
		log.Printf("[task][create][err] %v", err)
		writeServiceError(c, err)
		return
	}
	log.Printf("[task][create][ok] id=%d title=%q", created.ID, created.Title)
	c.JSON(http.StatusCreated, created)

	h.notifyAssignee(c, created, "📌 New task assigned")
}

// GET /tasks
func (h *TaskHandler) GetAll(c *gin.Context) {
	userID, roleID := getUserAndRole(c)
	log.Printf("[task][list] call by userID=%d role=%d q=%v", userID, roleID, c.Request.URL.RawQuery)

	var params services.QueryParams
	if v, ok := c.GetQuery("status"); ok {
		st := models.TaskStatus(v)
		params.Status = &st
	}
	if v, ok := c.GetQuery("priority"); ok {
		pr := models.TaskPriority(v)
		params.Priority = &pr
	}
	params.Text = c.Query("q")
	params.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	params.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "10"))

	result, err := h.service.List(c.Request.Context(), params)
	if err != nil {
		log.Printf("[task][list][err] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve tasks"})
		return
	}
	log.Printf("[task][list][ok] count=%d page=%d/%d", result.TotalCount, result.Page, result.TotalPages)
	c.JSON(http.StatusOK, result)
}

// GET /tasks/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, ok := h.taskID(c, "getByID")
	if !ok {
		return
	}
	task, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		log.Printf("[task][getByID][err] id=%d: %v", id, err)
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DELETE /tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, roleID := getUserAndRole(c)
	id, ok := h.taskID(c, "delete")
	if !ok {
		return
	}
	if !authz.IsAdmin(roleID) {
		log.Printf("[task][delete][deny] userID=%d role=%d", userID, roleID)
		c.JSON(http.StatusForbidden, gin.H{"error": "only admin can delete tasks"})
		return
	}

	current, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		log.Printf("[task][delete][err] get current id=%d: %v", id, err)
		writeServiceError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		log.Printf("[task][delete][err] id=%d: %v", id, err)
		writeServiceError(c, err)
		return
	}
	log.Printf("[task][delete][ok] id=%d", id)

	h.notifyAssignee(c, current, "🗑️ Task deleted")

	c.Status(http.StatusNoContent)
}

// PUT /tasks/:id/submit { "feedback": "...", "link": "...", "no_feedback": false, "attachment": {...} }
func (h *TaskHandler) SubmitCompletion(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := h.taskID(c, "submit")
	if !ok {
		return
	}

	var body struct {
		Feedback   string          `json:"feedback"`
		Link       string          `json:"link"`
		NoFeedback bool            `json:"no_feedback"`
		Attachment *models.FileRef `json:"attachment"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		log.Printf("[task][submit][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.SubmitCompletion(c.Request.Context(), id, services.CompletionPayload{
		Feedback:    body.Feedback,
		Link:        body.Link,
		CompletedBy: userID,
		Attachment:  body.Attachment,
		NoFeedback:  body.NoFeedback,
	})
	if err != nil {
		log.Printf("[task][submit][err] id=%d by=%d: %v", id, userID, err)
		writeServiceError(c, err)
		return
	}
	log.Printf("[task][submit][ok] id=%d status=%q cycles=%d", id, updated.Status, len(updated.ReworkDetails))
	c.JSON(http.StatusOK, updated)
}

// PUT /tasks/:id/complete
func (h *TaskHandler) MarkComplete(c *gin.Context) {
	userID, roleID := getUserAndRole(c)
	id, ok := h.taskID(c, "complete")
	if !ok {
		return
	}
	if !authz.CanReview(roleID) {
		log.Printf("[task][complete][deny] userID=%d role=%d", userID, roleID)
		c.JSON(http.StatusForbidden, gin.H{"error": "only reviewer can finalize"})
		return
	}

	updated, err := h.service.MarkComplete(c.Request.Context(), id)
	if err != nil {
		log.Printf("[task][complete][err] id=%d: %v", id, err)
		writeServiceError(c, err)
		return
	}
	log.Printf("[task][complete][ok] id=%d", id)
	c.JSON(http.StatusOK, updated)

	h.notifyCompleted(c, updated)
}

// PUT /tasks/:id/rework { "comment": "...", "deadline": "2025-10-01T00:00:00Z" }
func (h *TaskHandler) RequestRework(c *gin.Context) {
	userID, roleID := getUserAndRole(c)
	id, ok := h.taskID(c, "rework")
	if !ok {
		return
	}
	if !authz.CanReview(roleID) {
		log.Printf("[task][rework][deny] userID=%d role=%d", userID, roleID)
		c.JSON(http.StatusForbidden, gin.H{"error": "only reviewer can request rework"})
		return
	}

	var body struct {
		Comment  string `json:"comment"`
		Deadline string `json:"deadline"` // RFC3339
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		log.Printf("[task][rework][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var deadline time.Time
	if body.Deadline != "" {
		t, err := time.Parse(time.RFC3339, body.Deadline)
		if err != nil {
			log.Printf("[task][rework][err] invalid deadline=%q: %v", body.Deadline, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deadline (RFC3339)"})
			return
		}
		deadline = t
	}

	updated, err := h.service.RequestRework(c.Request.Context(), id, body.Comment, deadline)
	if err != nil {
		log.Printf("[task][rework][err] id=%d: %v", id, err)
		writeServiceError(c, err)
		return
	}
	log.Printf("[task][rework][ok] id=%d cycles=%d", id, len(updated.ReworkDetails))
	c.JSON(http.StatusOK, updated)

	h.notifyRework(c, updated, body.Comment, deadline)
}

// GET /tasks/:id/timeline
func (h *TaskHandler) Timeline(c *gin.Context) {
	id, ok := h.taskID(c, "timeline")
	if !ok {
		return
	}
	tl, err := h.service.Timeline(c.Request.Context(), id)
	if err != nil {
		log.Printf("[task][timeline][err] id=%d: %v", id, err)
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tl)
}

// GET /tasks/:id/timeline/pdf
func (h *TaskHandler) TimelinePDF(c *gin.Context) {
	id, ok := h.taskID(c, "timelinePdf")
	if !ok {
		return
	}
	task, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	tl := services.BuildTimeline(task)

	names, err := h.users.NamesByID(c.Request.Context())
	if err != nil {
		log.Printf("[task][timelinePdf][warn] load user names: %v", err)
		names = map[int64]string{}
	}

	data := pdf.TimelineReportData{
		TaskID:      task.ID,
		Title:       task.Title,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		DueDate:     task.EffectiveDeadline(),
		GeneratedAt: time.Now(),
	}
	if tl.Current != nil {
		cur := reportSubmission(*tl.Current, names)
		data.Current = &cur
	}
	for _, s := range tl.Previous {
		data.Previous = append(data.Previous, reportSubmission(s, names))
	}
	if tl.OpenRequest != nil {
		data.OpenComment = tl.OpenRequest.Comment
	}

	relPath, err := h.pdfGen.GenerateTimelineReport(data)
	if err != nil {
		log.Printf("[task][timelinePdf][err] id=%d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate report"})
		return
	}
	log.Printf("[task][timelinePdf][ok] id=%d file=%s", id, relPath)
	c.FileAttachment(h.files.Path(&models.FileRef{Filename: relPath}), "task_"+strconv.FormatInt(id, 10)+"_timeline.pdf")
}

// POST /tasks/attachments (multipart "file")
func (h *TaskHandler) UploadAttachment(c *gin.Context) {
	userID, roleID := getUserAndRole(c)
	log.Printf("[task][attach] call by userID=%d role=%d", userID, roleID)

	fh, err := c.FormFile("file")
	if err != nil {
		log.Printf("[task][attach][err] form file: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	ref, err := h.files.SaveUpload(fh)
	if err != nil {
		log.Printf("[task][attach][err] save %q: %v", fh.Filename, err)
		writeServiceError(c, err)
		return
	}
	log.Printf("[task][attach][ok] stored=%s original=%q", ref.Filename, ref.OriginalName)
	c.JSON(http.StatusCreated, ref)
}

// ---- helpers ----

func (h *TaskHandler) taskID(c *gin.Context, op string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		log.Printf("[task][%s][err] invalid id: %v", op, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func reportSubmission(s services.SubmissionView, names map[int64]string) pdf.TimelineSubmission {
	by := names[s.CompletedBy]
	if by == "" {
		by = "user #" + strconv.FormatInt(s.CompletedBy, 10)
	}
	return pdf.TimelineSubmission{
		Feedback:       s.Feedback,
		Link:           s.Link,
		CompletedBy:    by,
		CompletedDate:  s.CompletedDate,
		ReworkComment:  s.ReworkComment,
		ReworkDeadline: s.ReworkDeadline,
	}
}

// ---- notifications ----

func (h *TaskHandler) notifyAssignee(c *gin.Context, t *models.TaskRecord, prefix string) {
	if t == nil || t.AssignedTo == nil {
		return
	}
	if h.email != nil {
		if user, err := h.users.GetByID(c.Request.Context(), *t.AssignedTo); err == nil {
			if err := h.email.SendTaskAssignedEmail(user.Email, t); err != nil {
				log.Printf("[task][notify][email][err] assignee=%d: %v", *t.AssignedTo, err)
			}
		}
	}
	if h.tg == nil || h.users == nil {
		return
	}
	chatID, allow, err := h.users.GetTelegramSettings(c.Request.Context(), *t.AssignedTo)
	if err != nil {
		log.Printf("[task][notify] get telegram settings failed: assignee=%d err=%v", *t.AssignedTo, err)
		return
	}
	if !allow || chatID == 0 {
		return
	}
	_ = h.tg.SendMessage(chatID, h.formatTask(prefix, t))
}

func (h *TaskHandler) notifyCompleted(c *gin.Context, t *models.TaskRecord) {
	if t == nil || t.AssignedTo == nil {
		return
	}
	if h.email != nil {
		if user, err := h.users.GetByID(c.Request.Context(), *t.AssignedTo); err == nil {
			if err := h.email.SendTaskCompletedEmail(user.Email, t); err != nil {
				log.Printf("[task][notify][email][err] assignee=%d: %v", *t.AssignedTo, err)
			}
		}
	}
	if h.tg == nil {
		return
	}
	chatID, allow, err := h.users.GetTelegramSettings(c.Request.Context(), *t.AssignedTo)
	if err != nil || !allow || chatID == 0 {
		return
	}
	_ = h.tg.SendMessage(chatID, h.formatTask("✅ Task approved and completed", t))
}

func (h *TaskHandler) notifyRework(c *gin.Context, t *models.TaskRecord, comment string, deadline time.Time) {
	if t.AssignedTo == nil {
		return
	}
	if h.email != nil {
		if user, err := h.users.GetByID(c.Request.Context(), *t.AssignedTo); err == nil {
			if err := h.email.SendReworkRequestedEmail(user.Email, t, comment, deadline); err != nil {
				log.Printf("[task][notify][email][err] assignee=%d: %v", *t.AssignedTo, err)
			}
		}
	}
	if h.tg == nil {
		return
	}
	chatID, allow, err := h.users.GetTelegramSettings(c.Request.Context(), *t.AssignedTo)
	if err != nil || !allow || chatID == 0 {
		return
	}
	msg := "🔁 Rework requested\n" +
		"• <b>" + html.EscapeString(t.Title) + "</b>\n" +
		"• Comment: " + html.EscapeString(comment) + "\n" +
		"• New deadline: <code>" + deadline.Format("2006-01-02") + "</code>"
	_ = h.tg.SendMessage(chatID, msg)
}

func (h *TaskHandler) formatTask(prefix string, t *models.TaskRecord) string {
	title := html.EscapeString(t.Title) // parse_mode=HTML
	return prefix + "\n" +
		"• <b>" + title + "</b>\n" +
		"• Status: <code>" + string(t.Status) + "</code>\n" +
		"• Priority: <code>" + string(t.Priority) + "</code>\n" +
		"• Deadline: <code>" + t.EffectiveDeadline().Format("2006-01-02 15:04") + "</code>"
}
