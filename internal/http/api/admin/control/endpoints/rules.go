package endpoints

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/vantage/internal/db"
	"github.com/Nixie-Tech-LLC/vantage/internal/http/api"
	"github.com/Nixie-Tech-LLC/vantage/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/vantage/internal/model"
	"github.com/Nixie-Tech-LLC/vantage/internal/rules"
)

type RuleController struct {
	store   db.Store
	decider Decider
}

func newRuleController(store db.Store, decider Decider) *RuleController {
	return &RuleController{store: store, decider: decider}
}

// RuleModule mounts all authenticated /rules endpoints plus the dry-run evaluator.
func RuleModule(store db.Store, decider Decider) api.Module {
	ctl := newRuleController(store, decider)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/rules", ctl.listRules)
		c.POST("/rules", ctl.createRule)
		c.GET("/rules/:id", ctl.getRule)
		c.PUT("/rules/:id", ctl.updateRule)
		c.DELETE("/rules/:id", ctl.deleteRule)
		c.PUT("/rules/:id/active", ctl.setRuleActive)

		c.POST("/screens/:id/evaluate", ctl.evaluateScreen)
	})
}

// affected returns the screens whose decision may change with this rule.
func (r *RuleController) affected(rule model.Rule, ownerID int) []int {
	if rule.ScreenID != nil {
		return []int{*rule.ScreenID}
	}
	return ownerScreenIDs(r.store, ownerID)
}

// checkRefs verifies the rule's screen and output media belong to the user.
func (r *RuleController) checkRefs(rule model.Rule, user *model.User) *api.APIError {
	if rule.ScreenID != nil {
		if _, apiErr := ownedScreen(r.store, *rule.ScreenID, user); apiErr != nil {
			return apiErr
		}
	}
	if _, apiErr := ownedMedia(r.store, rule.OutputMediaID, user); apiErr != nil {
		return apiErr
	}
	return nil
}

// GET /api/admin/rules?screen_id=
func (r *RuleController) listRules(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var screenID *int
	if raw := ctx.Query("screen_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, api.BadRequest("invalid screen_id")
		}
		screenID = &id
	}

	list, err := r.store.ListRules(user.ID, screenID)
	if err != nil {
		return nil, api.Internal("could not list rules")
	}
	return list, nil
}

// GET /api/admin/rules/:id
func (r *RuleController) getRule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	rule, apiErr := ownedRule(r.store, id, user)
	if apiErr != nil {
		return nil, apiErr
	}
	return rule, nil
}

// POST /api/admin/rules
func (r *RuleController) createRule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.RuleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	rule := rules.Normalize(request.Input())
	rule.CreatedBy = user.ID
	if rule.Name == "" {
		return nil, api.BadRequest("name is required")
	}
	if apiErr := r.checkRefs(rule, user); apiErr != nil {
		return nil, apiErr
	}

	created, err := r.store.CreateRule(rule)
	if err != nil {
		return nil, api.Internal("could not create rule")
	}

	log.Info().Int("rule_id", created.ID).Int("priority", created.Priority).Bool("global", created.Global()).Msg("rule created")
	r.decider.Invalidate(ctx.Request.Context(), r.affected(created, user.ID)...)
	return api.Created(created), nil
}

// PUT /api/admin/rules/:id
// Replaces the rule; bounds go through the same normalization as on create.
func (r *RuleController) updateRule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.RuleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	existing, apiErr := ownedRule(r.store, id, user)
	if apiErr != nil {
		return nil, apiErr
	}

	rule := rules.Normalize(request.Input())
	rule.ID = id
	rule.CreatedBy = user.ID
	if rule.Name == "" {
		return nil, api.BadRequest("name is required")
	}
	if apiErr := r.checkRefs(rule, user); apiErr != nil {
		return nil, apiErr
	}

	updated, err := r.store.UpdateRule(rule)
	if err != nil {
		return nil, lookupError(err, "rule")
	}

	screens := append(r.affected(existing, user.ID), r.affected(updated, user.ID)...)
	r.decider.Invalidate(ctx.Request.Context(), dedupe(screens)...)
	return updated, nil
}

// PUT /api/admin/rules/:id/active
func (r *RuleController) setRuleActive(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.SetRuleActiveRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	rule, apiErr := ownedRule(r.store, id, user)
	if apiErr != nil {
		return nil, apiErr
	}

	if err := r.store.SetRuleActive(id, *request.IsActive); err != nil {
		return nil, lookupError(err, "rule")
	}
	rule.IsActive = *request.IsActive

	r.decider.Invalidate(ctx.Request.Context(), r.affected(rule, user.ID)...)
	return rule, nil
}

// DELETE /api/admin/rules/:id
func (r *RuleController) deleteRule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	rule, apiErr := ownedRule(r.store, id, user)
	if apiErr != nil {
		return nil, apiErr
	}

	if err := r.store.DeleteRule(id); err != nil {
		return nil, api.Internal("could not delete rule")
	}

	r.decider.Invalidate(ctx.Request.Context(), r.affected(rule, user.ID)...)
	return gin.H{"message": "rule deleted"}, nil
}

// POST /api/admin/screens/:id/evaluate
// Runs the screen's rules against a supplied audience without touching playback.
func (r *RuleController) evaluateScreen(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := paramID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.EvaluateRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	if _, apiErr := ownedScreen(r.store, id, user); apiErr != nil {
		return nil, apiErr
	}

	candidates, err := r.store.ListCandidateRules(id)
	if err != nil {
		return nil, api.Internal("could not load rules")
	}

	snap := model.AudienceSnapshot{
		ScreenID:     id,
		PeopleCount:  request.PeopleCount,
		MaleCount:    request.MaleCount,
		FemaleCount:  request.FemaleCount,
		AvgAge:       request.AvgAge,
		DwellSeconds: request.DwellSeconds,
	}
	resp := packets.EvaluateResponse{Checked: len(rules.Order(id, candidates))}
	if winner, ok := rules.Evaluate(id, snap, candidates); ok {
		resp.Matched = true
		resp.Rule = &winner
	}
	return resp, nil
}

func dedupe(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
