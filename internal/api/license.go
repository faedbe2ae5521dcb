package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fastfood/internal/license"
)

// LicenseStatusHeader carries VALID or INVALID on every checked response
const LicenseStatusHeader = "X-License-Status"

var licenseExemptPrefixes = []string{
	"/api/license",
	"/api/auth/login",
	"/api/settings",
	"/api/public/",
	"/health",
}

// licenseHeader annotates responses with the license state. It never blocks
// a request; clients decide what to do with the header.
func (s *Server) licenseHeader() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range licenseExemptPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		valid, err := s.licenses.CheckValidity()
		if err != nil {
			s.logger.Error("license check failed", zap.Error(err))
		}
		if valid {
			c.Header(LicenseStatusHeader, "VALID")
		} else {
			c.Header(LicenseStatusHeader, "INVALID")
		}
		c.Next()
	}
}

func (s *Server) licenseStatus(c *gin.Context) {
	st, err := s.licenses.Status()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) activateLicense(c *gin.Context) {
	var req struct {
		LicenseKey string `json:"licenseKey" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := s.licenses.Activate(req.LicenseKey)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) machineID(c *gin.Context) {
	id, err := s.licenses.MachineID()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"machineId": id})
}

func (s *Server) createLicense(c *gin.Context) {
	var req license.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lic, err := s.licenses.CreateLicense(req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":           lic.ID,
		"licenseKey":   lic.LicenseKey,
		"licenseType":  lic.LicenseType,
		"durationDays": lic.DurationDays,
		"clientName":   lic.ClientName,
		"clientEmail":  lic.ClientEmail,
		"notes":        lic.Notes,
		"isActive":     lic.IsActive,
	})
}
