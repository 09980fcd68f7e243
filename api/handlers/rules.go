package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	api_errors "github.com/customeros/mailsort/api/errors"
	"github.com/customeros/mailsort/interfaces"
	"github.com/customeros/mailsort/internal/models"
	"github.com/customeros/mailsort/services/rules"
)

// RuleSetRequest carries rule and chain lists in the rule file format.
type RuleSetRequest struct {
	Rules  json.RawMessage `json:"rules"`
	Chains json.RawMessage `json:"chains"`
}

type RulesHandler struct {
	snapshot interfaces.SnapshotProvider
}

func NewRulesHandler(snapshot interfaces.SnapshotProvider) *RulesHandler {
	return &RulesHandler{snapshot: snapshot}
}

// List returns the rules and chains the next run would use.
func (h *RulesHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		snapshot, err := h.snapshot()
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, api_errors.NewErrorResponse(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"rules":  nonNilRules(snapshot.Rules),
			"chains": nonNilChains(snapshot.Chains),
		})
	}
}

// Validate checks a rule set without storing it.
func (h *RulesHandler) Validate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request RuleSetRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, api_errors.NewErrorResponse(err))
			return
		}

		ruleList, chainList, err := decodeRuleSet(request)
		if err == nil {
			err = rules.Validate(ruleList, chainList)
		}
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"valid": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"valid": true, "rules": len(ruleList), "chains": len(chainList)})
	}
}

func decodeRuleSet(request RuleSetRequest) ([]models.Rule, []models.RuleChain, error) {
	var ruleList []models.Rule
	var chainList []models.RuleChain
	var err error
	if len(request.Rules) > 0 {
		if ruleList, err = rules.ImportRules(bytes.NewReader(request.Rules)); err != nil {
			return nil, nil, err
		}
	}
	if len(request.Chains) > 0 {
		if chainList, err = rules.ImportChains(bytes.NewReader(request.Chains)); err != nil {
			return nil, nil, err
		}
	}
	return ruleList, chainList, nil
}

func nonNilRules(list []models.Rule) []models.Rule {
	if list == nil {
		return []models.Rule{}
	}
	return list
}

func nonNilChains(list []models.RuleChain) []models.RuleChain {
	if list == nil {
		return []models.RuleChain{}
	}
	return list
}
