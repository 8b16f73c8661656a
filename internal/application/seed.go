package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"course-marketplace/internal/domain/model"
)

var (
	seedCategories = []string{
		"Ethical Hacking", "Penetration Testing", "Web Security", "Network Security",
		"Malware Analysis", "Cryptography", "Cloud Security", "Mobile Security", "OSINT",
		"Bug Bounty", "Incident Response", "Security Operations", "Forensics",
		"Social Engineering", "IoT Security",
	}
	seedPrefixes = []string{
		"Complete Guide to", "Mastering", "Advanced", "Professional", "Practical",
		"Ultimate", "Comprehensive", "Zero to Hero in", "Expert Level", "Hands-on",
	}
	seedTopics = []string{
		"SQL Injection", "XSS Attacks", "CSRF Protection", "Buffer Overflow",
		"Linux Exploitation", "Windows Privilege Escalation", "Active Directory Attacks",
		"Wireless Hacking", "Password Cracking", "Network Scanning",
		"Vulnerability Assessment", "Web Application Testing", "API Security",
		"Container Security", "Kubernetes Security", "AWS Security", "Azure Security",
		"Reverse Engineering", "Binary Exploitation", "Memory Forensics", "Threat Hunting",
		"SIEM Implementation", "IDS/IPS Setup", "Red Team Operations", "Blue Team Defense",
		"Purple Team Collaboration",
	}
	seedPrices = []int64{199, 299, 399, 499, 599, 259, 359, 459, 559}
	seedLevels = []model.CourseLevel{model.LevelBeginner, model.LevelIntermediate, model.LevelAdvanced}
)

// DemoCatalog generates n courses, course-1..course-n. Every 10th course is
// free. The output only depends on n and start; created_at grows by one
// second per course so catalog order matches the ids.
func DemoCatalog(n int, start time.Time) []*model.Course {
	out := make([]*model.Course, 0, n)
	for i := 0; i < n; i++ {
		num := i + 1
		category := seedCategories[i%len(seedCategories)]
		topic := seedTopics[(i*7)%len(seedTopics)]
		free := num%10 == 0
		price := seedPrices[i%len(seedPrices)]
		if free {
			price = 0
		}
		out = append(out, &model.Course{
			ID:    fmt.Sprintf("course-%d", num),
			Title: seedPrefixes[(i*3)%len(seedPrefixes)] + " " + topic,
			Description: fmt.Sprintf(
				"Learn %s from industry experts with real-world examples and hands-on labs. This course covers everything you need to master %s in %s.",
				strings.ToLower(topic), strings.ToLower(topic), strings.ToLower(category)),
			Category:   category,
			Level:      seedLevels[i%len(seedLevels)],
			Price:      price,
			IsFree:     free,
			Instructor: "Course Marketplace Team",
			CourseLink: fmt.Sprintf("https://example.com/course/%d", num),
			CreatedAt:  start.Add(time.Duration(i) * time.Second),
		})
	}
	return out
}

// CourseSaver is the write side of the catalog.
type CourseSaver interface {
	Create(ctx context.Context, c *model.Course) error
}

// SeedCatalog upserts the demo catalog and returns how many courses were written.
func SeedCatalog(ctx context.Context, catalog CourseSaver, n int, start time.Time) (int, error) {
	written := 0
	for _, c := range DemoCatalog(n, start) {
		if err := catalog.Create(ctx, c); err != nil {
			return written, fmt.Errorf("seed %s: %w", c.ID, err)
		}
		written++
	}
	return written, nil
}
