// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package qdata loads the questionnaire definition the mock server serves.

Definitions are authored as YAML:

	passcodes:
	  - DEMO-2025
	meta:
	  id: q_1001
	  title: 员工问卷（演示）
	  active: true
	  timeLimitSeconds: 300
	questions:
	  - id: q1
	    type: single
	    title: 您最常使用的设备是？
	    options:
	      - {id: q1_a, text: 手机}
	      - {id: q1_b, text: 平板}
	    jumpRules:
	      - {optionId: q1_b, end: true}

Load validates structure on the way in (unique ids, resolvable jump rules).
Demo returns the built-in demonstration set used when no definition file is
configured.
*/
package qdata
